package model

// Default values substituted when the upstream evaluation fails or
// returns an incomplete response. A student's submission must never
// be blocked by a scoring failure.
const (
	DefaultScore      = 0.5
	DefaultFeedback   = "The evaluation service could not produce feedback for this answer."
	DefaultSuggestion = "Try submitting again, or ask your teacher for help."
)

// Evaluation is the AI-produced assessment of one student answer.
// Construct with NewEvaluation so the invariants hold.
type Evaluation struct {
	Score       float64  `json:"score"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
}

// NewEvaluation builds an Evaluation from untrusted upstream values.
// The score is clamped into [0,1]; empty feedback and suggestions are
// filled with the documented defaults.
func NewEvaluation(score float64, feedback string, suggestions []string) Evaluation {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	if feedback == "" {
		feedback = DefaultFeedback
	}
	if len(suggestions) == 0 {
		suggestions = []string{DefaultSuggestion}
	}
	return Evaluation{Score: score, Feedback: feedback, Suggestions: suggestions}
}

// DefaultEvaluation is the neutral stand-in used when the evaluation
// service is unreachable or returns garbage.
func DefaultEvaluation() Evaluation {
	return Evaluation{
		Score:       DefaultScore,
		Feedback:    DefaultFeedback,
		Suggestions: []string{DefaultSuggestion},
	}
}
