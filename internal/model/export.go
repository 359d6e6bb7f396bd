package model

import "time"

// AnswerRecord is one row of the Student x Answer join used for
// classroom data export.
type AnswerRecord struct {
	StudentID   string    `json:"student_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Score       float64   `json:"score"`
	Feedback    string    `json:"feedback"`
	Suggestions []string  `json:"suggestions"`
	SubmittedAt time.Time `json:"submitted_at"`
}
