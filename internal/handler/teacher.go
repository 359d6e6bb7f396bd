package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appI18n "classpulse/internal/i18n"
	"classpulse/internal/model"
	"classpulse/internal/store"
)

func questionIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, model.ErrInvalidIndex
	}
	return i, nil
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	questions, current := sess.Questions()
	writeJSON(w, http.StatusOK, stateResponse{
		State:        string(sess.State()),
		ClassCode:    sess.ClassCode(),
		Questions:    questions,
		CurrentIndex: current,
	})
}

func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.AddQuestion(req.Text); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.handleListQuestions(w, r)
}

func (h *Handler) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var params model.GenerationParams
	if err := decodeJSON(r, &params); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	question, fallback, err := sess.GenerateQuestion(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := struct {
		Question string `json:"question"`
		Fallback bool   `json:"fallback"`
		Notice   string `json:"notice,omitempty"`
	}{Question: question, Fallback: fallback}
	if fallback {
		resp.Notice = appI18n.T(r.Context(), "GenerationFallback")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleEditQuestion(w http.ResponseWriter, r *http.Request) {
	i, err := questionIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.EditQuestion(i, req.Text); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.handleListQuestions(w, r)
}

func (h *Handler) handleRemoveQuestion(w http.ResponseWriter, r *http.Request) {
	h.questionOp(w, r, sessionFrom(r.Context()).RemoveQuestion)
}

func (h *Handler) handleMoveQuestionUp(w http.ResponseWriter, r *http.Request) {
	h.questionOp(w, r, sessionFrom(r.Context()).MoveQuestionUp)
}

func (h *Handler) handleMoveQuestionDown(w http.ResponseWriter, r *http.Request) {
	h.questionOp(w, r, sessionFrom(r.Context()).MoveQuestionDown)
}

func (h *Handler) handleSelectQuestion(w http.ResponseWriter, r *http.Request) {
	h.questionOp(w, r, sessionFrom(r.Context()).SelectQuestion)
}

func (h *Handler) questionOp(w http.ResponseWriter, r *http.Request, op func(int) error) {
	i, err := questionIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := op(i); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.handleListQuestions(w, r)
}

func (h *Handler) handleStartClass(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	classCode, err := sess.StartClass(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ClassCode string `json:"class_code"`
		Message   string `json:"message"`
	}{
		ClassCode: classCode,
		Message:   appI18n.Td(r.Context(), "ClassStarted", map[string]any{"Code": classCode}),
	})
}

func (h *Handler) handleEndClass(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.EndClass(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"state":   string(sess.State()),
		"message": appI18n.T(r.Context(), "ClassEnded"),
	})
}

func (h *Handler) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.NextQuestion(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.handleListQuestions(w, r)
}

func (h *Handler) handlePrevQuestion(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.PrevQuestion(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.handleListQuestions(w, r)
}

func (h *Handler) handleJumpToQuestion(w http.ResponseWriter, r *http.Request) {
	i, err := questionIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.JumpToQuestion(r.Context(), i); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.handleListQuestions(w, r)
}

func (h *Handler) handleStudents(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	students, err := sess.Students(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Students []model.Student `json:"students"`
		Message  string          `json:"message"`
	}{
		Students: students,
		Message:  appI18n.Tp(r.Context(), "StudentsJoined", len(students)),
	})
}

func (h *Handler) handleAnswers(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	answers, err := sess.AnswersForCurrent(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Answers []model.Answer `json:"answers"`
	}{Answers: answers})
}

// handleExport streams the classroom's data as a CSV or XLSX download.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unsupported export format %q", format)})
		return
	}

	sess := sessionFrom(r.Context())
	records, err := sess.ExportData(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filename := store.ExportFileName(sess.ClassCode(), format, time.Now())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = store.WriteCSV(w, records)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = store.WriteXLSX(w, records)
	}
	if err != nil {
		// Headers are already out; all we can do is log.
		slog.Error("export write failed", "format", format, "error", err)
	}
}
