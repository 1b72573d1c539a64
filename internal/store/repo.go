package store

import (
	"context"
	"fmt"
	"time"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/history"
)

// QuizRecord is one catalog entry. Records are never updated after they
// are saved; deleting is the only mutation.
type QuizRecord struct {
	ID            int             `json:"id"`
	Hash          string          `json:"hash"`
	Name          string          `json:"name"`
	Questions     []bank.Question `json:"normalizedData"`
	QuestionCount int             `json:"questionCount"`
	Categories    []string        `json:"categories"`
	ImportedAt    time.Time       `json:"importedAt"`
}

// DuplicateHashError is returned by QuizRepo.Save when a quiz with the same
// content hash already exists. Callers can recover by loading that quiz.
type DuplicateHashError struct {
	Hash string
}

func (e *DuplicateHashError) Error() string {
	return fmt.Sprintf("quiz with hash %s already exists", e.Hash)
}

// QuizRepo manages the quiz catalog.
type QuizRepo interface {
	// Save inserts rec and returns its assigned id. A hash collision
	// yields *DuplicateHashError.
	Save(ctx context.Context, rec *QuizRecord) (int, error)

	// ByHash returns the quiz with hash, or nil if none exists.
	ByHash(ctx context.Context, hash string) (*QuizRecord, error)

	// ByID returns the quiz with id, or nil if none exists.
	ByID(ctx context.Context, id int) (*QuizRecord, error)

	// All returns every quiz, most recently inserted first.
	All(ctx context.Context) ([]QuizRecord, error)

	// Delete removes the quiz and the history stored under hash in one
	// transaction.
	Delete(ctx context.Context, id int, hash string) error
}

// HistoryRepo manages attempt history keyed by quiz hash.
type HistoryRepo interface {
	// Load returns the stored history, or an empty one when there is none.
	Load(ctx context.Context, hash string) (*history.History, error)

	// Save creates or replaces the history for hash. An empty hash is a
	// no-op.
	Save(ctx context.Context, hash string, h *history.History) error
}

// SettingsRepo manages persisted preferences.
type SettingsRepo interface {
	// Load returns the stored settings merged over DefaultSettings.
	Load(ctx context.Context) (Settings, error)

	// Save persists s after normalization.
	Save(ctx context.Context, s Settings) error
}
