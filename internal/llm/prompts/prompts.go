// Package prompts builds the text sent to the evaluation service and
// holds the static fallback questions used when generation fails.
package prompts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"classpulse/internal/model"
)

// maxAnswerRunes bounds how much student text goes into a prompt.
const maxAnswerRunes = 10000

// GenerationPrompt builds the prompt for generating one open-ended
// discussion question.
func GenerationPrompt(p model.GenerationParams) string {
	keywords := "no specific keywords"
	if len(p.Keywords) > 0 {
		keywords = strings.Join(p.Keywords, ", ")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"Generate a thought-provoking discussion question about %s at %s difficulty level.\n",
		p.Subject, p.Difficulty))
	sb.WriteString("The question should incorporate these keywords or concepts if possible: " + keywords + ".\n")
	sb.WriteString("The question should be clear, open-ended, and designed to encourage critical thinking and classroom discussion.\n")
	sb.WriteString("Respond with the question text only, without any additional explanations or formatting.\n")
	return sb.String()
}

// EvaluationPrompt builds the prompt for scoring one student answer.
// The model is asked for a JSON object; the client tolerates prose or
// fenced code blocks around it.
func EvaluationPrompt(question, answer string) string {
	var sb strings.Builder
	sb.WriteString("Evaluate the student's answer to the following discussion question.\n\n")
	sb.WriteString("QUESTION: " + question + "\n\n")
	sb.WriteString("STUDENT ANSWER: " + SanitizeAnswer(answer) + "\n\n")
	sb.WriteString("Consider these factors:\n")
	sb.WriteString("1. Relevance of the answer to the question\n")
	sb.WriteString("2. Depth and breadth of the content\n")
	sb.WriteString("3. Whether the arguments are well reasoned\n")
	sb.WriteString("4. Language and logical structure\n\n")
	sb.WriteString("Respond ONLY with a JSON object in this exact shape:\n")
	sb.WriteString(`{"score": <number between 0 and 1>, "feedback": "<overall assessment>", "suggestions": ["<improvement 1>", "<improvement 2>", "<improvement 3>"]}`)
	sb.WriteString("\n")
	return sb.String()
}

// defaultQuestions is the static per-subject fallback bank used when
// the generation service is unreachable.
var defaultQuestions = map[model.Subject]string{
	model.SubjectScience:    "Explain how Newton's third law shows up in everyday life.",
	model.SubjectMath:       "How would you explain the Pythagorean theorem without using the formula?",
	model.SubjectLiterature: "Analyze the importance of symbolism in a literary work you know.",
	model.SubjectHistory:    "Discuss the impact of the Industrial Revolution on modern society.",
	model.SubjectGeneral:    "Analyze the role of critical thinking in solving problems.",
}

// DefaultQuestion returns the static fallback question for a subject.
// Subjects without a dedicated entry fall back to the general question.
func DefaultQuestion(s model.Subject) string {
	if q, ok := defaultQuestions[s]; ok {
		return q
	}
	return defaultQuestions[model.SubjectGeneral]
}

// SanitizeAnswer trims and bounds student text before it is embedded
// in a prompt.
func SanitizeAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "[No answer provided]"
	}
	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		answer = string(runes[:maxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}
	return answer
}
