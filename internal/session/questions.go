package session

import (
	"strings"
	"unicode/utf8"

	"classpulse/internal/model"
)

// minQuestionLen is the minimum rune count for an authored question.
const minQuestionLen = 10

// questionEntry carries a stable identity so "current" survives
// deletes and reorders without index-shift bugs.
type questionEntry struct {
	id   int64
	text string
}

// QuestionList is the teacher's ordered, mutable list of authored
// questions with one entry marked current. The invariant: the current
// index is -1 exactly when the list is empty, and a valid index
// otherwise.
type QuestionList struct {
	entries []questionEntry
	current int
	nextID  int64
}

// NewQuestionList returns an empty list with no current question.
func NewQuestionList() *QuestionList {
	return &QuestionList{current: -1}
}

// Len returns the number of authored questions.
func (l *QuestionList) Len() int { return len(l.entries) }

// Texts returns the question texts in order.
func (l *QuestionList) Texts() []string {
	texts := make([]string, len(l.entries))
	for i, e := range l.entries {
		texts[i] = e.text
	}
	return texts
}

// CurrentIndex returns the index of the current question, or -1.
func (l *QuestionList) CurrentIndex() int { return l.current }

// Current returns the current question text, if any.
func (l *QuestionList) Current() (string, bool) {
	if l.current < 0 {
		return "", false
	}
	return l.entries[l.current].text, true
}

func validQuestion(text string) (string, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minQuestionLen {
		return "", model.ErrEmptyQuestion
	}
	return text, nil
}

// Add appends a question. The first question added becomes current.
func (l *QuestionList) Add(text string) error {
	text, err := validQuestion(text)
	if err != nil {
		return err
	}
	l.nextID++
	l.entries = append(l.entries, questionEntry{id: l.nextID, text: text})
	if l.current < 0 {
		l.current = 0
	}
	return nil
}

// Edit replaces the text of the question at index i in place.
func (l *QuestionList) Edit(i int, text string) error {
	if i < 0 || i >= len(l.entries) {
		return model.ErrInvalidIndex
	}
	text, err := validQuestion(text)
	if err != nil {
		return err
	}
	l.entries[i].text = text
	return nil
}

// Remove deletes the question at index i. Deleting before the current
// question shifts the pointer down; deleting the current question
// selects the nearest remaining index.
func (l *QuestionList) Remove(i int) error {
	if i < 0 || i >= len(l.entries) {
		return model.ErrInvalidIndex
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	switch {
	case len(l.entries) == 0:
		l.current = -1
	case i < l.current:
		l.current--
	case i == l.current && l.current >= len(l.entries):
		l.current = len(l.entries) - 1
	}
	return nil
}

// MoveUp swaps the question at index i with its predecessor. The
// current pointer follows the entry it referred to.
func (l *QuestionList) MoveUp(i int) error {
	if i <= 0 || i >= len(l.entries) {
		return model.ErrInvalidIndex
	}
	l.entries[i-1], l.entries[i] = l.entries[i], l.entries[i-1]
	switch l.current {
	case i:
		l.current = i - 1
	case i - 1:
		l.current = i
	}
	return nil
}

// MoveDown swaps the question at index i with its successor.
func (l *QuestionList) MoveDown(i int) error {
	if i < 0 || i >= len(l.entries)-1 {
		return model.ErrInvalidIndex
	}
	return l.MoveUp(i + 1)
}

// Select marks the question at index i as current.
func (l *QuestionList) Select(i int) error {
	if i < 0 || i >= len(l.entries) {
		return model.ErrInvalidIndex
	}
	l.current = i
	return nil
}
