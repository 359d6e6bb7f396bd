// Package llm is the boundary adapter to the external text-generation
// service used for question generation and answer scoring.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"classpulse/internal/llm/prompts"
	"classpulse/internal/model"
)

// ErrGeneration and ErrEvaluation classify upstream failures so the
// lifecycle layer can pick the right fallback.
var (
	ErrGeneration = errors.New("question generation failed")
	ErrEvaluation = errors.New("answer evaluation failed")
)

const (
	// DefaultBaseURL is the DeepSeek OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.deepseek.com/v1"
	// DefaultModel is the chat model used for both generation and scoring.
	DefaultModel = "deepseek-chat"
	// DefaultTimeout bounds every upstream call so a hung request
	// cannot stall a session indefinitely.
	DefaultTimeout = 30 * time.Second
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New creates an evaluation service client. Empty arguments fall back
// to the DeepSeek defaults.
func New(baseURL, apiKey, modelName string, timeout time.Duration) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = DefaultBaseURL
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		timeout: timeout,
	}
}

// GenerateQuestion asks the service for one discussion question.
// Failures wrap ErrGeneration; the caller falls back to the static
// per-subject default question.
func (c *Client) GenerateQuestion(ctx context.Context, params model.GenerationParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompts.GenerationPrompt(params)},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGeneration)
	}

	question := strings.TrimSpace(resp.Choices[0].Message.Content)
	if question == "" {
		return "", fmt.Errorf("%w: empty question text", ErrGeneration)
	}
	return question, nil
}

// EvaluateAnswer asks the service to score one answer. The response
// JSON may arrive wrapped in prose or fenced code blocks; missing
// fields are filled with defaults and the score is clamped to [0,1].
// Failures wrap ErrEvaluation; the caller substitutes the neutral
// default evaluation rather than blocking the submission.
func (c *Client) EvaluateAnswer(ctx context.Context, question, answer string) (model.Evaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompts.EvaluationPrompt(question, answer)},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}
	if len(resp.Choices) == 0 {
		return model.Evaluation{}, fmt.Errorf("%w: no choices returned", ErrEvaluation)
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("evaluation response", "raw", raw)

	obj, err := extractJSONObject(raw)
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("%w: %w (raw: %s)", ErrEvaluation, err, raw)
	}

	var payload struct {
		Score       *float64 `json:"score"`
		Feedback    string   `json:"feedback"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return model.Evaluation{}, fmt.Errorf("%w: parse response: %w (raw: %s)", ErrEvaluation, err, raw)
	}

	score := model.DefaultScore
	if payload.Score != nil {
		score = *payload.Score
	}
	return model.NewEvaluation(score, payload.Feedback, payload.Suggestions), nil
}

// IsAvailable probes the service with a tiny completion. It reports
// liveness only and never returns an error.
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hello"},
		},
		MaxTokens: 5,
	})
	if err != nil {
		slog.Warn("evaluation service unavailable", "error", err)
		return false
	}
	return true
}

// extractJSONObject pulls the first JSON object out of a model
// response that may wrap it in prose or ```json fences.
func extractJSONObject(s string) (string, error) {
	if i := strings.Index(s, "```json"); i != -1 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j != -1 {
			s = s[:j]
		}
	} else if i := strings.Index(s, "```"); i != -1 {
		s = s[i+len("```"):]
		if j := strings.Index(s, "```"); j != -1 {
			s = s[:j]
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", errors.New("no JSON object in response")
	}
	return s[start : end+1], nil
}
