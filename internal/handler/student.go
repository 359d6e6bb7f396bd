package handler

import (
	"log/slog"
	"net/http"

	appI18n "classpulse/internal/i18n"
	"classpulse/internal/model"
)

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	studentID, err := sess.Join(r.Context(), req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		StudentID string `json:"student_id"`
		Question  string `json:"question"`
		Message   string `json:"message"`
	}{
		StudentID: studentID,
		Question:  sess.CurrentQuestion(),
		Message:   appI18n.Td(r.Context(), "JoinedClass", map[string]any{"Code": sess.ClassCode()}),
	})
}

func (h *Handler) handleRefreshQuestion(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	question, changed, err := sess.RefreshQuestion(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Question string `json:"question"`
		Changed  bool   `json:"changed"`
		State    string `json:"state"`
	}{Question: question, Changed: changed, State: string(sess.State())})
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	eval, err := sess.Submit(r.Context(), req.Answer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Evaluation model.Evaluation `json:"evaluation"`
		Message    string           `json:"message"`
	}{Evaluation: eval, Message: appI18n.T(r.Context(), "AnswerReceived")})
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Leave()
	slog.Debug("student left", "session_id", model.SessionIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"state": string(sess.State())})
}
