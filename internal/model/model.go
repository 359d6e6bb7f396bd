package model

import (
	"context"
	"time"
)

// ClassStatus represents the lifecycle state of a classroom.
type ClassStatus string

const (
	// ClassActive means the classroom accepts student joins.
	ClassActive ClassStatus = "active"
	// ClassClosed means the classroom has ended; rows persist for export.
	ClassClosed ClassStatus = "closed"
)

// Subject is a discussion question subject area.
type Subject string

const (
	SubjectScience    Subject = "science"
	SubjectMath       Subject = "math"
	SubjectLiterature Subject = "literature"
	SubjectHistory    Subject = "history"
	SubjectGeography  Subject = "geography"
	SubjectArt        Subject = "art"
	SubjectGeneral    Subject = "general"
)

// Subjects lists all known subjects in display order.
var Subjects = []Subject{
	SubjectScience, SubjectMath, SubjectLiterature,
	SubjectHistory, SubjectGeography, SubjectArt, SubjectGeneral,
}

// Valid reports whether s is a known subject.
func (s Subject) Valid() bool {
	for _, known := range Subjects {
		if s == known {
			return true
		}
	}
	return false
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Classroom represents one teacher-led session. Code is the primary
// external identifier students join with.
type Classroom struct {
	Code      string      `json:"class_code"`
	CreatedAt time.Time   `json:"created_at"`
	TeacherID string      `json:"teacher_id"`
	Question  string      `json:"question"`
	Status    ClassStatus `json:"status"`
}

// Student represents one join of a classroom. Rows are historical:
// never mutated, never deleted.
type Student struct {
	ID        string    `json:"id"`
	ClassCode string    `json:"class_code"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Answer is one immutable submission with its evaluation.
// Question is a denormalized copy of the question text the answer
// responds to; questions are not modeled as rows of their own.
type Answer struct {
	StudentID   string     `json:"student_id"`
	ClassCode   string     `json:"class_code"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Evaluation  Evaluation `json:"evaluation"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// GenerationParams are the inputs to AI question generation.
type GenerationParams struct {
	Subject    Subject    `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	Keywords   []string   `json:"keywords"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Addr      string
	DBPath    string
	TeacherID string
	Lang      string
}

type sessionIDCtxKey struct{}

// ContextWithSessionID stores the browser session ID in the request context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDCtxKey{}, id)
}

// SessionIDFromContext retrieves the browser session ID (empty if not set).
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDCtxKey{}).(string)
	return id
}
