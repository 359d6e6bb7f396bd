package session

import (
	"errors"
	"testing"

	"classpulse/internal/model"
)

func listWith(t *testing.T, texts ...string) *QuestionList {
	t.Helper()
	l := NewQuestionList()
	for _, text := range texts {
		if err := l.Add(text); err != nil {
			t.Fatalf("Add(%q): %v", text, err)
		}
	}
	return l
}

func assertInvariant(t *testing.T, l *QuestionList) {
	t.Helper()
	if l.Len() == 0 {
		if l.CurrentIndex() != -1 {
			t.Fatalf("empty list must have current -1, got %d", l.CurrentIndex())
		}
		return
	}
	if l.CurrentIndex() < 0 || l.CurrentIndex() >= l.Len() {
		t.Fatalf("current %d out of range for %d questions", l.CurrentIndex(), l.Len())
	}
}

func TestQuestionListAdd(t *testing.T) {
	l := NewQuestionList()
	if l.CurrentIndex() != -1 {
		t.Fatalf("new list should have current -1, got %d", l.CurrentIndex())
	}
	if _, ok := l.Current(); ok {
		t.Fatal("new list should have no current question")
	}

	if err := l.Add("What causes the seasons?"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// First question becomes current.
	if cur, ok := l.Current(); !ok || cur != "What causes the seasons?" {
		t.Errorf("expected first question current, got %q ok=%v", cur, ok)
	}

	if err := l.Add("Why do tides happen?"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Adding more does not steal current.
	if l.CurrentIndex() != 0 {
		t.Errorf("expected current 0, got %d", l.CurrentIndex())
	}
	assertInvariant(t, l)
}

func TestQuestionListAddRejectsShort(t *testing.T) {
	l := NewQuestionList()
	for _, text := range []string{"", "   ", "short", "  tiny q  "} {
		if err := l.Add(text); !errors.Is(err, model.ErrEmptyQuestion) {
			t.Errorf("Add(%q): expected ErrEmptyQuestion, got %v", text, err)
		}
	}
	if l.Len() != 0 {
		t.Errorf("rejected adds must not grow the list, len=%d", l.Len())
	}
	assertInvariant(t, l)
}

func TestQuestionListEdit(t *testing.T) {
	l := listWith(t, "What causes the seasons?", "Why do tides happen?")

	if err := l.Edit(1, "Why do ocean tides happen?"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if l.Texts()[1] != "Why do ocean tides happen?" {
		t.Errorf("edit not applied: %v", l.Texts())
	}

	if err := l.Edit(5, "Out of range question?"); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if err := l.Edit(0, "x"); !errors.Is(err, model.ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestQuestionListRemoveBookkeeping(t *testing.T) {
	tests := []struct {
		name        string
		selectIdx   int
		removeIdx   int
		wantCurrent int
		wantLen     int
	}{
		{"remove after current", 0, 2, 0, 2},
		{"remove before current shifts down", 2, 0, 1, 2},
		{"remove current selects nearest", 1, 1, 1, 2},
		{"remove current at tail clamps", 2, 2, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := listWith(t,
				"What causes the seasons?",
				"Why do tides happen on Earth?",
				"How do magnets attract metal?")
			if err := l.Select(tt.selectIdx); err != nil {
				t.Fatalf("Select: %v", err)
			}
			if err := l.Remove(tt.removeIdx); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if l.Len() != tt.wantLen {
				t.Errorf("len = %d, want %d", l.Len(), tt.wantLen)
			}
			if l.CurrentIndex() != tt.wantCurrent {
				t.Errorf("current = %d, want %d", l.CurrentIndex(), tt.wantCurrent)
			}
			assertInvariant(t, l)
		})
	}
}

func TestQuestionListRemoveToEmpty(t *testing.T) {
	l := listWith(t, "What causes the seasons?")
	if err := l.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if l.Len() != 0 || l.CurrentIndex() != -1 {
		t.Errorf("expected empty list with current -1, got len=%d current=%d", l.Len(), l.CurrentIndex())
	}
	if err := l.Remove(0); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex on empty list, got %v", err)
	}
}

func TestQuestionListMove(t *testing.T) {
	l := listWith(t,
		"What causes the seasons?",
		"Why do tides happen on Earth?",
		"How do magnets attract metal?")

	// Current pointer follows the entry it referred to.
	if err := l.Select(1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := l.MoveUp(1); err != nil {
		t.Fatalf("MoveUp: %v", err)
	}
	if l.Texts()[0] != "Why do tides happen on Earth?" {
		t.Errorf("unexpected order: %v", l.Texts())
	}
	if l.CurrentIndex() != 0 {
		t.Errorf("current should follow moved entry, got %d", l.CurrentIndex())
	}

	if err := l.MoveDown(0); err != nil {
		t.Fatalf("MoveDown: %v", err)
	}
	if l.CurrentIndex() != 1 {
		t.Errorf("current should follow moved entry, got %d", l.CurrentIndex())
	}

	// Boundary swaps are rejected.
	if err := l.MoveUp(0); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if err := l.MoveDown(2); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	assertInvariant(t, l)
}

func TestQuestionListSelect(t *testing.T) {
	l := listWith(t, "What causes the seasons?", "Why do tides happen on Earth?")
	if err := l.Select(1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if cur, _ := l.Current(); cur != "Why do tides happen on Earth?" {
		t.Errorf("unexpected current %q", cur)
	}
	if err := l.Select(-1); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if err := l.Select(2); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
}
