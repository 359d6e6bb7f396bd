// Package session implements the per-user lifecycle state machine:
// question authoring, classroom activation, joining, answering, and
// submission. Each user session owns one Session instance; the only
// shared state lives in the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"classpulse/internal/code"
	"classpulse/internal/llm"
	"classpulse/internal/llm/prompts"
	"classpulse/internal/model"
	"classpulse/internal/store"
)

// State names one node of the lifecycle state machine.
type State string

const (
	StateUnselected       State = "unselected"
	StateTeacherAuthoring State = "teacher_authoring"
	StateTeacherLive      State = "teacher_live"
	StateStudentJoining   State = "student_joining"
	StateStudentAnswering State = "student_answering"
	StateStudentSubmitted State = "student_submitted"
)

// Role is the identity picked at session start.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// minAnswerLen is the minimum rune count for a submitted answer.
const minAnswerLen = 10

// codeAttempts bounds class-code regeneration on collision.
const codeAttempts = 5

// Evaluator is the slice of the evaluation client the lifecycle needs.
type Evaluator interface {
	GenerateQuestion(ctx context.Context, params model.GenerationParams) (string, error)
	EvaluateAnswer(ctx context.Context, question, answer string) (model.Evaluation, error)
}

// Session is one user's lifecycle context. Methods are safe for the
// serialized request pattern of a single browser session; a mutex
// guards against overlapping requests from the same client.
type Session struct {
	mu        sync.Mutex
	store     *store.Store
	evaluator Evaluator
	teacherID string
	newCode   func() string

	state     State
	questions *QuestionList

	// Teacher live state.
	classCode string

	// Student state.
	studentID       string
	joinedCode      string
	currentQuestion string
	submitted       map[string]bool
}

// New creates a fresh session in the Unselected state.
func New(st *store.Store, ev Evaluator, teacherID string) *Session {
	return &Session{
		store:     st,
		evaluator: ev,
		teacherID: teacherID,
		newCode:   code.ClassCode,
		state:     StateUnselected,
		questions: NewQuestionList(),
		submitted: make(map[string]bool),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ClassCode returns the live classroom code (teacher) or the joined
// classroom code (student); empty when neither applies.
func (s *Session) ClassCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.classCode != "" {
		return s.classCode
	}
	return s.joinedCode
}

// StudentID returns the identifier assigned at join time.
func (s *Session) StudentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.studentID
}

// ChooseRole moves from Unselected into the chosen role's first state.
func (s *Session) ChooseRole(role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnselected {
		return model.ErrInvalidState
	}
	switch role {
	case RoleTeacher:
		s.state = StateTeacherAuthoring
	case RoleStudent:
		s.state = StateStudentJoining
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	return nil
}

// Reset tears the session back to role selection, clearing all state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnselected
	s.questions = NewQuestionList()
	s.classCode = ""
	s.clearStudentLocked()
}

func (s *Session) clearStudentLocked() {
	s.studentID = ""
	s.joinedCode = ""
	s.currentQuestion = ""
	s.submitted = make(map[string]bool)
}

// --- Teacher: authoring ---

// Questions returns the authored question texts and the current index.
func (s *Session) Questions() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions.Texts(), s.questions.CurrentIndex()
}

func (s *Session) authoring(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTeacherAuthoring {
		return model.ErrInvalidState
	}
	return fn()
}

// AddQuestion appends a manually authored question.
func (s *Session) AddQuestion(text string) error {
	return s.authoring(func() error { return s.questions.Add(text) })
}

// EditQuestion replaces the question at index i.
func (s *Session) EditQuestion(i int, text string) error {
	return s.authoring(func() error { return s.questions.Edit(i, text) })
}

// RemoveQuestion deletes the question at index i.
func (s *Session) RemoveQuestion(i int) error {
	return s.authoring(func() error { return s.questions.Remove(i) })
}

// MoveQuestionUp swaps the question at index i with its predecessor.
func (s *Session) MoveQuestionUp(i int) error {
	return s.authoring(func() error { return s.questions.MoveUp(i) })
}

// MoveQuestionDown swaps the question at index i with its successor.
func (s *Session) MoveQuestionDown(i int) error {
	return s.authoring(func() error { return s.questions.MoveDown(i) })
}

// SelectQuestion marks the question at index i as current.
func (s *Session) SelectQuestion(i int) error {
	return s.authoring(func() error { return s.questions.Select(i) })
}

// GenerateQuestion asks the evaluation service for a question. When
// generation fails the per-subject static default is returned instead,
// with fallback=true so the caller can surface a non-fatal warning.
// The result is NOT appended to the list; the caller confirms first
// and then calls AddQuestion.
func (s *Session) GenerateQuestion(ctx context.Context, params model.GenerationParams) (question string, fallback bool, err error) {
	if s.State() != StateTeacherAuthoring {
		return "", false, model.ErrInvalidState
	}
	if !params.Subject.Valid() {
		params.Subject = model.SubjectGeneral
	}
	if !params.Difficulty.Valid() {
		params.Difficulty = model.DifficultyMedium
	}

	question, err = s.evaluator.GenerateQuestion(ctx, params)
	if err != nil {
		if errors.Is(err, llm.ErrGeneration) {
			slog.Warn("question generation failed, using static default",
				"subject", params.Subject, "error", err)
			return prompts.DefaultQuestion(params.Subject), true, nil
		}
		return "", false, err
	}
	return question, false, nil
}

// --- Teacher: live classroom ---

// StartClass allocates a class code, creates the classroom with the
// current question, and moves to TeacherLive. Code collisions are
// retried with fresh codes a bounded number of times.
func (s *Session) StartClass(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTeacherAuthoring {
		return "", model.ErrInvalidState
	}
	current, ok := s.questions.Current()
	if !ok {
		return "", model.ErrNoQuestions
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		candidate := s.newCode()
		err := s.store.CreateClassroom(candidate, s.teacherID, current)
		if errors.Is(err, model.ErrCodeTaken) {
			slog.Info("class code collision, retrying", "code", candidate, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create classroom: %w", err)
		}
		s.classCode = candidate
		s.state = StateTeacherLive
		return candidate, nil
	}
	return "", model.ErrCodeExhausted
}

// setCurrent moves the local pointer and persists the classroom
// question together; the store is what students read from. On a
// persistence failure the pointer is rolled back so the local list and
// the stored question never diverge.
func (s *Session) setCurrent(i int) error {
	prev := s.questions.CurrentIndex()
	if err := s.questions.Select(i); err != nil {
		return err
	}
	current, _ := s.questions.Current()
	if err := s.store.UpdateClassroomQuestion(s.classCode, current); err != nil {
		_ = s.questions.Select(prev)
		return fmt.Errorf("persist current question: %w", err)
	}
	return nil
}

func (s *Session) live(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTeacherLive {
		return model.ErrInvalidState
	}
	return fn()
}

// NextQuestion advances to the next authored question.
func (s *Session) NextQuestion(ctx context.Context) error {
	return s.live(func() error { return s.setCurrent(s.questions.CurrentIndex() + 1) })
}

// PrevQuestion steps back to the previous authored question.
func (s *Session) PrevQuestion(ctx context.Context) error {
	return s.live(func() error { return s.setCurrent(s.questions.CurrentIndex() - 1) })
}

// JumpToQuestion selects the authored question at index i.
func (s *Session) JumpToQuestion(ctx context.Context, i int) error {
	return s.live(func() error { return s.setCurrent(i) })
}

// Students returns the classroom's joined students, read fresh.
func (s *Session) Students(ctx context.Context) ([]model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTeacherLive {
		return nil, model.ErrInvalidState
	}
	return s.store.GetClassroomStudents(s.classCode)
}

// AnswersForCurrent returns the submissions for the current question.
// Always a fresh read: new submissions can arrive at any time.
func (s *Session) AnswersForCurrent(ctx context.Context) ([]model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTeacherLive {
		return nil, model.ErrInvalidState
	}
	current, ok := s.questions.Current()
	if !ok {
		return nil, model.ErrNoQuestions
	}
	return s.store.GetAnswersForQuestion(s.classCode, current)
}

// ExportData returns the classroom's Student x Answer join for export.
func (s *Session) ExportData(ctx context.Context) ([]model.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTeacherLive {
		return nil, model.ErrInvalidState
	}
	return s.store.GetClassroomData(s.classCode)
}

// EndClass soft-closes the classroom and returns to authoring. The
// authored question list and current pointer survive for the next class.
func (s *Session) EndClass(ctx context.Context) error {
	return s.live(func() error {
		if err := s.store.CloseClassroom(s.classCode); err != nil {
			return fmt.Errorf("close classroom: %w", err)
		}
		s.classCode = ""
		s.state = StateTeacherAuthoring
		return nil
	})
}

// --- Student ---

// Join validates the class code, records the join, and caches the
// classroom's current question. A malformed or unknown code is an
// explicit rejection; no student row is written.
func (s *Session) Join(ctx context.Context, rawCode string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStudentJoining {
		return "", model.ErrInvalidState
	}

	classCode := strings.ToUpper(strings.TrimSpace(rawCode))
	if utf8.RuneCountInString(classCode) != 4 {
		return "", model.ErrInvalidCode
	}

	studentID := code.StudentID()
	if err := s.store.AddStudent(studentID, classCode); err != nil {
		return "", err
	}

	info, err := s.store.GetClassroomInfo(classCode)
	if err != nil {
		return "", fmt.Errorf("read classroom after join: %w", err)
	}

	s.studentID = studentID
	s.joinedCode = classCode
	s.currentQuestion = info.Question
	s.state = StateStudentAnswering
	return studentID, nil
}

// CurrentQuestion returns the locally cached question text.
func (s *Session) CurrentQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentQuestion
}

// RefreshQuestion re-reads the classroom's current question. Invoked
// on an explicit user refresh, not on a timer: this is a polling
// design. If the teacher has rotated to a question this session has
// not answered, the student may answer again.
func (s *Session) RefreshQuestion(ctx context.Context) (question string, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStudentAnswering && s.state != StateStudentSubmitted {
		return "", false, model.ErrInvalidState
	}

	info, err := s.store.GetClassroomInfo(s.joinedCode)
	if err != nil {
		return "", false, err
	}
	if info.Question == s.currentQuestion {
		return s.currentQuestion, false, nil
	}

	s.currentQuestion = info.Question
	if s.submitted[s.currentQuestion] {
		s.state = StateStudentSubmitted
	} else {
		s.state = StateStudentAnswering
	}
	return s.currentQuestion, true, nil
}

// Submit evaluates and persists the student's answer for the current
// question. An evaluation failure substitutes the neutral default
// rather than blocking the submission; a persistence failure leaves
// the session answering so the same submit can be retried. A second
// submit for the same question is refused.
func (s *Session) Submit(ctx context.Context, answerText string) (model.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStudentSubmitted {
		return model.Evaluation{}, model.ErrAlreadySubmitted
	}
	if s.state != StateStudentAnswering {
		return model.Evaluation{}, model.ErrInvalidState
	}
	if s.submitted[s.currentQuestion] {
		return model.Evaluation{}, model.ErrAlreadySubmitted
	}

	answerText = strings.TrimSpace(answerText)
	if utf8.RuneCountInString(answerText) < minAnswerLen {
		return model.Evaluation{}, model.ErrEmptyAnswer
	}

	eval, err := s.evaluator.EvaluateAnswer(ctx, s.currentQuestion, answerText)
	if err != nil {
		slog.Warn("evaluation failed, saving with neutral default",
			"student_id", s.studentID, "error", err)
		eval = model.DefaultEvaluation()
	}

	err = s.store.SaveAnswer(model.Answer{
		StudentID:  s.studentID,
		ClassCode:  s.joinedCode,
		Question:   s.currentQuestion,
		Answer:     answerText,
		Evaluation: eval,
	})
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("save answer: %w", err)
	}

	s.submitted[s.currentQuestion] = true
	s.state = StateStudentSubmitted
	return eval, nil
}

// Leave clears all student state and returns to the join screen. The
// persisted answers remain.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearStudentLocked()
	if s.state == StateStudentAnswering || s.state == StateStudentSubmitted {
		s.state = StateStudentJoining
	}
}
