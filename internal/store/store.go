package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"classpulse/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS classrooms (
		class_code TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		teacher_id TEXT NOT NULL,
		question TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id TEXT NOT NULL UNIQUE,
		class_code TEXT NOT NULL,
		joined_at DATETIME NOT NULL,
		FOREIGN KEY (class_code) REFERENCES classrooms(class_code)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id TEXT NOT NULL,
		class_code TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		score REAL NOT NULL,
		feedback TEXT NOT NULL DEFAULT '',
		suggestions TEXT NOT NULL DEFAULT '[]',
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (student_id) REFERENCES students(student_id),
		FOREIGN KEY (class_code) REFERENCES classrooms(class_code)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateClassroom inserts a new active classroom. Returns
// model.ErrCodeTaken if the code is already in use; the caller retries
// with a fresh code.
func (s *Store) CreateClassroom(code, teacherID, question string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM classrooms WHERE class_code = ?)`, code).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrCodeTaken
	}

	_, err = tx.Exec(
		`INSERT INTO classrooms (class_code, created_at, teacher_id, question, status)
		 VALUES (?, ?, ?, ?, ?)`,
		code, time.Now(), teacherID, question, model.ClassActive,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// AddStudent records a student joining a classroom. The existence and
// active-status check happens in the same transaction as the insert so
// a concurrent EndClass cannot slip between them.
func (s *Store) AddStudent(studentID, classCode string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status model.ClassStatus
	err = tx.QueryRow(`SELECT status FROM classrooms WHERE class_code = ?`, classCode).Scan(&status)
	if err == sql.ErrNoRows {
		return model.ErrClassroomNotFound
	}
	if err != nil {
		return err
	}
	if status != model.ClassActive {
		return model.ErrClassroomClosed
	}

	_, err = tx.Exec(
		`INSERT INTO students (student_id, class_code, joined_at) VALUES (?, ?, ?)`,
		studentID, classCode, time.Now(),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateClassroomQuestion sets the current question for a classroom.
// Updating a nonexistent classroom is an explicit ErrClassroomNotFound,
// not a silent no-op.
func (s *Store) UpdateClassroomQuestion(classCode, question string) error {
	res, err := s.db.Exec(
		`UPDATE classrooms SET question = ? WHERE class_code = ?`,
		question, classCode,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrClassroomNotFound
	}
	return nil
}

// CloseClassroom soft-closes a classroom: the row persists for export,
// but no further joins are accepted.
func (s *Store) CloseClassroom(classCode string) error {
	res, err := s.db.Exec(
		`UPDATE classrooms SET status = ? WHERE class_code = ?`,
		model.ClassClosed, classCode,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrClassroomNotFound
	}
	return nil
}

// GetClassroomInfo returns a classroom by code.
func (s *Store) GetClassroomInfo(classCode string) (model.Classroom, error) {
	var c model.Classroom
	err := s.db.QueryRow(
		`SELECT class_code, created_at, teacher_id, question, status FROM classrooms WHERE class_code = ?`,
		classCode,
	).Scan(&c.Code, &c.CreatedAt, &c.TeacherID, &c.Question, &c.Status)
	if err == sql.ErrNoRows {
		return model.Classroom{}, model.ErrClassroomNotFound
	}
	return c, err
}

// GetClassroomStudents returns the students of a classroom ordered by
// join time.
func (s *Store) GetClassroomStudents(classCode string) ([]model.Student, error) {
	rows, err := s.db.Query(
		`SELECT student_id, class_code, joined_at FROM students WHERE class_code = ? ORDER BY joined_at, id`,
		classCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.ClassCode, &st.JoinedAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// SaveAnswer persists one immutable answer row with its evaluation.
func (s *Store) SaveAnswer(a model.Answer) error {
	suggestions, err := json.Marshal(a.Evaluation.Suggestions)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}
	submittedAt := a.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	_, err = s.db.Exec(
		`INSERT INTO answers (student_id, class_code, question, answer, score, feedback, suggestions, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.StudentID, a.ClassCode, a.Question, a.Answer,
		a.Evaluation.Score, a.Evaluation.Feedback, string(suggestions), submittedAt,
	)
	return err
}

// GetAnswersForQuestion returns all answers for one question in a
// classroom, newest first. Always read fresh: new submissions can
// arrive at any time.
func (s *Store) GetAnswersForQuestion(classCode, question string) ([]model.Answer, error) {
	rows, err := s.db.Query(
		`SELECT student_id, class_code, question, answer, score, feedback, suggestions, submitted_at
		 FROM answers
		 WHERE class_code = ? AND question = ?
		 ORDER BY submitted_at DESC, id DESC`,
		classCode, question,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func scanAnswer(rows *sql.Rows) (model.Answer, error) {
	var a model.Answer
	var suggestions string
	err := rows.Scan(&a.StudentID, &a.ClassCode, &a.Question, &a.Answer,
		&a.Evaluation.Score, &a.Evaluation.Feedback, &suggestions, &a.SubmittedAt)
	if err != nil {
		return a, err
	}
	if suggestions != "" {
		if err := json.Unmarshal([]byte(suggestions), &a.Evaluation.Suggestions); err != nil {
			return a, fmt.Errorf("decode suggestions: %w", err)
		}
	}
	return a, nil
}
