package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/export"
	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/library"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
)

// Handler ties HTTP routes to the library.
type Handler struct {
	lib *library.Library
	log *slog.Logger
}

type quizSummary struct {
	ID            int              `json:"id"`
	Hash          string           `json:"hash"`
	Name          string           `json:"name"`
	QuestionCount int              `json:"questionCount"`
	Categories    []string         `json:"categories"`
	ImportedAt    time.Time        `json:"importedAt"`
	AttemptCount  int              `json:"attemptCount"`
	BestAttempt   *history.Attempt `json:"bestAttempt"`
}

func summarize(rec store.QuizRecord, attempts int, best *history.Attempt) quizSummary {
	return quizSummary{
		ID:            rec.ID,
		Hash:          rec.Hash,
		Name:          rec.Name,
		QuestionCount: rec.QuestionCount,
		Categories:    rec.Categories,
		ImportedAt:    rec.ImportedAt,
		AttemptCount:  attempts,
		BestAttempt:   best,
	}
}

// readBody reads a size-limited request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
}

// ListQuizzes returns the catalog, newest first.
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.lib.Catalog(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	out := make([]quizSummary, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, summarize(s.Quiz, s.AttemptCount, s.Best))
	}
	writeJSON(w, http.StatusOK, out)
}

// ImportQuiz adds the question bank in the body to the catalog. The name
// comes from the "name" query parameter, or is derived from "filename".
// Identical content returns the stored quiz with 200 instead of 201.
func (h *Handler) ImportQuiz(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		if fn := r.URL.Query().Get("filename"); fn != "" {
			name = library.SuggestName(fn)
		}
	}

	res, err := h.lib.Import(r.Context(), body, name)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	status := http.StatusCreated
	if res.Existing {
		status = http.StatusOK
	} else {
		h.log.Info("quiz imported", "id", res.Quiz.ID, "hash", res.Quiz.Hash, "questions", res.Quiz.QuestionCount)
	}
	writeJSON(w, status, map[string]any{
		"quiz":     summarize(*res.Quiz, 0, nil),
		"existing": res.Existing,
	})
}

// GetQuiz returns a quiz with its normalized questions.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lib.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteQuiz removes a quiz and its history.
func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lib.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	if _, err := h.lib.Delete(r.Context(), rec.ID); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	h.log.Info("quiz deleted", "id", rec.ID, "hash", rec.Hash)
	w.WriteHeader(http.StatusNoContent)
}

// Categories lists the quiz's category labels in display order.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lib.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, session.CollectCategories(rec.Questions))
}

type startSessionRequest struct {
	Category string `json:"category"`
	Mode     string `json:"mode"`
}

type sessionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type sessionQuestion struct {
	ID       bank.QuestionID `json:"id"`
	Category string          `json:"category"`
	Question string          `json:"question"`
	Options  []sessionOption `json:"options"`
}

type sessionResponse struct {
	ID        string            `json:"id"`
	Mode      history.Mode      `json:"mode"`
	Category  string            `json:"category"`
	Questions []sessionQuestion `json:"questions"`
}

// StartSession returns a freshly shuffled question order. Correct flags
// and explanations are withheld; answers are graded by SubmitAttempt.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lib.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	var req startSessionRequest
	if err := decodeOptional(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := history.ParseMode(req.Mode)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.lib.Start(r.Context(), rec, session.Options{Category: req.Category, Mode: mode})
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	resp := sessionResponse{ID: s.ID, Mode: s.Mode, Category: s.Category}
	for _, q := range s.Questions {
		sq := sessionQuestion{ID: q.ID, Category: q.Category, Question: q.Question}
		for _, o := range q.Options {
			sq.Options = append(sq.Options, sessionOption{ID: o.ID, Text: o.Text})
		}
		resp.Questions = append(resp.Questions, sq)
	}
	writeJSON(w, http.StatusCreated, resp)
}

type submitRequest struct {
	Mode string `json:"mode"`

	// Answers maps question ids to selected option ids; "" means no
	// answer.
	Answers map[string]string `json:"answers"`
}

// SubmitAttempt grades answers and records the attempt.
func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lib.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	mode, err := history.ParseMode(req.Mode)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	attempt, hist, err := h.lib.Submit(r.Context(), rec, mode, req.Answers)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"attempt":     attempt,
		"bestAttempt": hist.BestAttempt,
		"isBest":      hist.BestAttempt != nil && hist.BestAttempt.Number == attempt.Number,
	})
}

// History returns the quiz's attempt history as a JSON report.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	h.writeReport(w, r, export.FormatJSON)
}

// HistoryCSV returns one CSV row per attempt.
func (h *Handler) HistoryCSV(w http.ResponseWriter, r *http.Request) {
	h.writeReport(w, r, export.FormatCSV)
}

func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, f export.Format) {
	rec, err := h.lib.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	hist, err := h.lib.History(r.Context(), rec.Hash)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	switch f {
	case export.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename()))
	default:
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, f, export.NewReport(hist)); err != nil {
		h.log.Error("write report", "hash", rec.Hash, "error", err)
	}
}

// Validate checks a question bank without importing it. Schema problems
// are all reported together; a clean schema still has to pass Normalize.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	raw, err := bank.Decode(body)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	if err := bank.Lint(raw); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	questions, err := bank.Normalize(raw)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      true,
		"questions":  len(questions),
		"categories": session.CollectCategories(questions),
	})
}

// Template returns a starter question bank.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	data, err := bank.Template()
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="quiz_template.json"`)
	w.Write(data)
}

// Schema returns the JSON Schema for question banks.
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bank.BankSchema)
}

// decodeOptional decodes a JSON body into v, treating an empty body as {}.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
