// Package handler exposes the classroom lifecycle as a JSON API. Each
// browser session is bound to one lifecycle Session via a cookie; the
// handlers translate HTTP requests into session operations and typed
// errors into status codes with localized messages.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appI18n "classpulse/internal/i18n"
	"classpulse/internal/llm"
	"classpulse/internal/model"
	"classpulse/internal/session"
	"classpulse/internal/store"
)

// Evaluator is what the handlers need from the evaluation client:
// the lifecycle operations plus a health probe.
type Evaluator interface {
	session.Evaluator
	IsAvailable(ctx context.Context) bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	evaluator Evaluator
	config    model.ServerConfig
	registry  *registry
}

// New creates a new Handler.
func New(s *store.Store, ev Evaluator, cfg model.ServerConfig) *Handler {
	h := &Handler{store: s, evaluator: ev, config: cfg}
	h.registry = newRegistry(func() *session.Session {
		return session.New(s, ev, cfg.TeacherID)
	})
	return h
}

// Router builds the full chi router with middleware.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(h.config.Lang))
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.withSession)

		r.Get("/session", h.handleSessionState)
		r.Post("/session/role", h.handleChooseRole)
		r.Post("/session/reset", h.handleReset)

		r.Route("/teacher", func(r chi.Router) {
			r.Get("/questions", h.handleListQuestions)
			r.Post("/questions", h.handleAddQuestion)
			r.Post("/questions/generate", h.handleGenerateQuestion)
			r.Put("/questions/{index}", h.handleEditQuestion)
			r.Delete("/questions/{index}", h.handleRemoveQuestion)
			r.Post("/questions/{index}/move-up", h.handleMoveQuestionUp)
			r.Post("/questions/{index}/move-down", h.handleMoveQuestionDown)
			r.Post("/questions/{index}/select", h.handleSelectQuestion)

			r.Post("/class/start", h.handleStartClass)
			r.Post("/class/end", h.handleEndClass)
			r.Post("/class/next", h.handleNextQuestion)
			r.Post("/class/prev", h.handlePrevQuestion)
			r.Post("/class/jump/{index}", h.handleJumpToQuestion)
			r.Get("/class/students", h.handleStudents)
			r.Get("/class/answers", h.handleAnswers)
			r.Get("/class/export", h.handleExport)
		})

		r.Route("/student", func(r chi.Router) {
			r.Post("/join", h.handleJoin)
			r.Get("/question", h.handleRefreshQuestion)
			r.Post("/answer", h.handleSubmitAnswer)
			r.Post("/leave", h.handleLeave)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.evaluator.IsAvailable(r.Context()) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	questions, current := sess.Questions()
	writeJSON(w, http.StatusOK, stateResponse{
		State:        string(sess.State()),
		ClassCode:    sess.ClassCode(),
		Questions:    questions,
		CurrentIndex: current,
	})
}

func (h *Handler) handleChooseRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.ChooseRole(session.Role(req.Role)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(sess.State())})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"state": string(sess.State())})
}

type stateResponse struct {
	State        string   `json:"state"`
	ClassCode    string   `json:"class_code,omitempty"`
	Questions    []string `json:"questions"`
	CurrentIndex int      `json:"current_index"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// errStatus maps each sentinel to a status code and the localized
// message shown to the user. Unmapped errors fall through to ErrInternal.
var errStatus = []struct {
	err    error
	status int
	msgID  string
}{
	{model.ErrInvalidCode, http.StatusBadRequest, "ErrInvalidCode"},
	{model.ErrEmptyQuestion, http.StatusBadRequest, "ErrEmptyQuestion"},
	{model.ErrEmptyAnswer, http.StatusBadRequest, "ErrEmptyAnswer"},
	{model.ErrInvalidIndex, http.StatusBadRequest, "ErrInvalidIndex"},
	{model.ErrNoQuestions, http.StatusBadRequest, "ErrNoQuestions"},
	{model.ErrClassroomNotFound, http.StatusNotFound, "ErrClassroomNotFound"},
	{model.ErrClassroomClosed, http.StatusConflict, "ErrClassroomClosed"},
	{model.ErrCodeTaken, http.StatusConflict, "ErrCodeTaken"},
	{model.ErrCodeExhausted, http.StatusConflict, "ErrCodeExhausted"},
	{model.ErrInvalidState, http.StatusConflict, "ErrInvalidState"},
	{model.ErrAlreadySubmitted, http.StatusConflict, "ErrAlreadySubmitted"},
	{llm.ErrGeneration, http.StatusBadGateway, "ErrUpstream"},
	{llm.ErrEvaluation, http.StatusBadGateway, "ErrUpstream"},
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errStatus {
		if errors.Is(err, m.err) {
			writeJSON(w, m.status, errorResponse{Error: appI18n.T(r.Context(), m.msgID)})
			return
		}
	}
	var malformed *malformedRequestError
	if errors.As(err, &malformed) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: malformed.Error()})
		return
	}
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: appI18n.T(r.Context(), "ErrInternal")})
}

type malformedRequestError struct {
	cause error
}

func (e *malformedRequestError) Error() string {
	return fmt.Sprintf("malformed request body: %v", e.cause)
}

// maxBodyBytes bounds request bodies; answers are capped well below this.
const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return &malformedRequestError{cause: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
