// Package export writes attempt history as JSON or CSV reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/quizpulse/quizpulse/internal/history"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "json" or "csv".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q (want json or csv)", s)
}

// Filename returns the default file name for f.
func (f Format) Filename() string {
	return "quiz_results." + string(f)
}

// Report is the serializable view of a quiz history.
type Report struct {
	AttemptsHistory []history.Attempt       `json:"attemptsHistory"`
	BestAttempt     *history.Attempt        `json:"bestAttempt"`
	QuestionStats   map[string]history.Stat `json:"questionStats"`
}

// NewReport copies the exportable parts of h.
func NewReport(h *history.History) Report {
	r := Report{
		AttemptsHistory: append([]history.Attempt{}, h.AttemptsHistory...),
		BestAttempt:     h.BestAttempt,
		QuestionStats:   make(map[string]history.Stat, len(h.QuestionStats)),
	}
	for k, v := range h.QuestionStats {
		r.QuestionStats[k] = v
	}
	return r
}

// CSVHeader is the first row of a CSV export.
var CSVHeader = []string{"Attempt", "Mode", "Score", "Total", "Percentage", "Completed at"}

// Write encodes r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteCSV writes one row per attempt, oldest first.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range r.AttemptsHistory {
		row := []string{
			strconv.Itoa(a.Number),
			a.Mode.Label(),
			strconv.Itoa(a.Score),
			strconv.Itoa(a.Total),
			strconv.FormatFloat(a.Percentage, 'f', -1, 64),
			a.CompletedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", a.Number, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
