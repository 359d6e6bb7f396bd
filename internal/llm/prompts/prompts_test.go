package prompts

import (
	"strings"
	"testing"

	"classpulse/internal/model"
)

func TestGenerationPrompt(t *testing.T) {
	p := GenerationPrompt(model.GenerationParams{
		Subject:    model.SubjectHistory,
		Difficulty: model.DifficultyHard,
		Keywords:   []string{"trade", "empire"},
	})
	if !strings.Contains(p, "history") {
		t.Error("prompt should contain the subject")
	}
	if !strings.Contains(p, "hard") {
		t.Error("prompt should contain the difficulty")
	}
	if !strings.Contains(p, "trade, empire") {
		t.Error("prompt should contain the keywords")
	}
	if !strings.Contains(p, "question text only") {
		t.Error("prompt should ask for bare question text")
	}
}

func TestGenerationPromptNoKeywords(t *testing.T) {
	p := GenerationPrompt(model.GenerationParams{
		Subject:    model.SubjectMath,
		Difficulty: model.DifficultyEasy,
	})
	if !strings.Contains(p, "no specific keywords") {
		t.Error("prompt should note the absence of keywords")
	}
}

func TestEvaluationPrompt(t *testing.T) {
	p := EvaluationPrompt("Explain gravity", "Things fall because of mass attraction")
	if !strings.Contains(p, "Explain gravity") {
		t.Error("prompt should contain the question")
	}
	if !strings.Contains(p, "Things fall because of mass attraction") {
		t.Error("prompt should contain the answer")
	}
	if !strings.Contains(p, `"score"`) || !strings.Contains(p, `"suggestions"`) {
		t.Error("prompt should spell out the JSON response shape")
	}
}

func TestDefaultQuestion(t *testing.T) {
	for _, s := range []model.Subject{
		model.SubjectScience, model.SubjectMath, model.SubjectLiterature,
		model.SubjectHistory, model.SubjectGeneral,
	} {
		if DefaultQuestion(s) == "" {
			t.Errorf("subject %q has no default question", s)
		}
	}

	// Subjects without a dedicated entry fall back to the general question.
	if DefaultQuestion(model.SubjectGeography) != DefaultQuestion(model.SubjectGeneral) {
		t.Error("geography should fall back to the general default")
	}
	if DefaultQuestion(model.SubjectArt) != DefaultQuestion(model.SubjectGeneral) {
		t.Error("art should fall back to the general default")
	}
}

func TestSanitizeAnswer(t *testing.T) {
	if got := SanitizeAnswer("   hello   "); got != "hello" {
		t.Errorf("expected trimmed answer, got %q", got)
	}
	if got := SanitizeAnswer("  "); got != "[No answer provided]" {
		t.Errorf("expected placeholder for empty answer, got %q", got)
	}

	long := strings.Repeat("a", maxAnswerRunes+500)
	got := SanitizeAnswer(long)
	if !strings.HasSuffix(got, "[Answer truncated due to length]") {
		t.Error("expected truncation marker on long answer")
	}
	if len(got) >= len(long) {
		t.Error("expected truncated answer to be shorter")
	}
}
