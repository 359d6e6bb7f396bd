package model

import "errors"

// Validation errors: malformed user input, recovered locally with no
// state mutation.
var (
	ErrInvalidCode   = errors.New("class code must be exactly 4 characters")
	ErrEmptyQuestion = errors.New("question is empty or too short")
	ErrEmptyAnswer   = errors.New("answer is empty or too short")
	ErrInvalidIndex  = errors.New("question index out of range")
)

// Not-found errors: the referenced classroom does not exist or is no
// longer joinable.
var (
	ErrClassroomNotFound = errors.New("classroom not found")
	ErrClassroomClosed   = errors.New("classroom is closed")
)

// Conflict errors: class-code collisions on creation.
var (
	ErrCodeTaken     = errors.New("class code already in use")
	ErrCodeExhausted = errors.New("could not allocate a unique class code")
)

// Lifecycle errors.
var (
	ErrInvalidState     = errors.New("operation not allowed in current state")
	ErrNoQuestions      = errors.New("no questions authored")
	ErrAlreadySubmitted = errors.New("answer already submitted for this question")
)
