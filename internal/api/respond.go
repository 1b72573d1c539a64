package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/library"
	"github.com/quizpulse/quizpulse/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResp struct {
	Error string `json:"error"`

	// Validation context, set for rejected question banks.
	Kind        bank.Kind `json:"kind,omitempty"`
	Index       int       `json:"index,omitempty"`
	OptionIndex int       `json:"optionIndex,omitempty"`
	ID          string    `json:"id,omitempty"`
	Problems    []string  `json:"problems,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}

// writeFailure maps library errors onto HTTP statuses. Anything
// unrecognized is logged and reported as 500.
func writeFailure(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		ve *bank.ValidationError
		pe *bank.ParseError
		le *bank.LintError
		uq *library.UnknownQuestionError
		mb *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errResp{
			Error:       ve.Error(),
			Kind:        ve.Kind,
			Index:       ve.Index,
			OptionIndex: ve.OptionIndex,
			ID:          ve.ID,
		})
	case errors.As(err, &le):
		writeJSON(w, http.StatusUnprocessableEntity, errResp{Error: "question bank does not match schema", Problems: le.Problems})
	case errors.As(err, &mb):
		writeErr(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.As(err, &pe):
		writeErr(w, http.StatusBadRequest, pe.Error())
	case errors.Is(err, library.ErrQuizNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrNoQuestions):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.As(err, &uq), errors.Is(err, session.ErrUnknownOption):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
