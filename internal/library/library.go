// Package library ties question banks, the catalog and attempt history
// together: importing with deduplication, starting sessions and recording
// their results.
package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/fingerprint"
	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
)

// DefaultName labels quizzes imported without a name.
const DefaultName = "Quiz"

// ErrQuizNotFound is returned when a quiz reference matches nothing.
var ErrQuizNotFound = errors.New("quiz not found")

// Library coordinates the catalog, history and session builder.
type Library struct {
	quizzes   store.QuizRepo
	histories store.HistoryRepo
	builder   *session.Builder
	now       func() time.Time
}

// New creates a Library.
func New(quizzes store.QuizRepo, histories store.HistoryRepo, builder *session.Builder) *Library {
	return &Library{
		quizzes:   quizzes,
		histories: histories,
		builder:   builder,
		now:       time.Now,
	}
}

// Prepared is a validated bank that has not been saved yet.
type Prepared struct {
	Questions  []bank.Question
	Hash       string
	Categories []string

	// Existing is set when the catalog already holds identical content.
	Existing *store.QuizRecord
}

// ImportResult reports what Import did.
type ImportResult struct {
	Quiz *store.QuizRecord

	// Existing is true when the content was already in the catalog and
	// nothing new was saved. Prior history stays attached by hash.
	Existing bool
}

// Prepare decodes and validates data, fingerprints it and checks the
// catalog for identical content.
func (l *Library) Prepare(ctx context.Context, data []byte) (*Prepared, error) {
	raw, err := bank.Decode(data)
	if err != nil {
		return nil, err
	}
	return l.PrepareValue(ctx, raw)
}

// PrepareValue is Prepare for an already decoded JSON value.
func (l *Library) PrepareValue(ctx context.Context, raw any) (*Prepared, error) {
	questions, err := bank.Normalize(raw)
	if err != nil {
		return nil, err
	}
	hash, err := fingerprint.Compute(questions)
	if err != nil {
		return nil, err
	}
	existing, err := l.quizzes.ByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("look up quiz: %w", err)
	}
	return &Prepared{
		Questions:  questions,
		Hash:       hash,
		Categories: session.CollectCategories(questions),
		Existing:   existing,
	}, nil
}

// Commit saves a prepared bank under name. If the content already exists,
// including when another import wins a race for the same hash, the stored
// quiz is returned instead.
func (l *Library) Commit(ctx context.Context, p *Prepared, name string) (*ImportResult, error) {
	if p.Existing != nil {
		return &ImportResult{Quiz: p.Existing, Existing: true}, nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	rec := &store.QuizRecord{
		Hash:          p.Hash,
		Name:          name,
		Questions:     p.Questions,
		QuestionCount: len(p.Questions),
		Categories:    p.Categories,
		ImportedAt:    l.now().UTC(),
	}
	_, err := l.quizzes.Save(ctx, rec)
	var dup *store.DuplicateHashError
	if errors.As(err, &dup) {
		existing, lookupErr := l.quizzes.ByHash(ctx, p.Hash)
		if lookupErr != nil {
			return nil, fmt.Errorf("load existing quiz: %w", lookupErr)
		}
		if existing == nil {
			return nil, err
		}
		return &ImportResult{Quiz: existing, Existing: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ImportResult{Quiz: rec}, nil
}

// Import validates data and adds it to the catalog under name.
func (l *Library) Import(ctx context.Context, data []byte, name string) (*ImportResult, error) {
	p, err := l.Prepare(ctx, data)
	if err != nil {
		return nil, err
	}
	return l.Commit(ctx, p, name)
}

// ImportValue is Import for an already decoded JSON value.
func (l *Library) ImportValue(ctx context.Context, raw any, name string) (*ImportResult, error) {
	p, err := l.PrepareValue(ctx, raw)
	if err != nil {
		return nil, err
	}
	return l.Commit(ctx, p, name)
}

// SuggestName derives a quiz name from a file name: the .json extension
// is dropped and underscores and hyphens become spaces.
func SuggestName(filename string) string {
	base := filepath.Base(filename)
	if strings.EqualFold(filepath.Ext(base), ".json") {
		base = base[:len(base)-len(".json")]
	}
	name := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(base))
	if name == "" || name == "." {
		return DefaultName
	}
	return name
}

// Resolve finds a quiz by catalog id or content hash.
func (l *Library) Resolve(ctx context.Context, ref string) (*store.QuizRecord, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		rec, err := l.quizzes.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
	rec, err := l.quizzes.ByHash(ctx, ref)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrQuizNotFound, ref)
	}
	return rec, nil
}

// Delete removes a quiz and its history.
func (l *Library) Delete(ctx context.Context, id int) (*store.QuizRecord, error) {
	rec, err := l.quizzes.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %d", ErrQuizNotFound, id)
	}
	if err := l.quizzes.Delete(ctx, rec.ID, rec.Hash); err != nil {
		return nil, err
	}
	return rec, nil
}

// History returns the attempt history for a quiz hash.
func (l *Library) History(ctx context.Context, hash string) (*history.History, error) {
	return l.histories.Load(ctx, hash)
}

// Summary is a catalog entry with its history headline.
type Summary struct {
	Quiz         store.QuizRecord
	AttemptCount int
	Best         *history.Attempt
}

// Catalog lists every quiz, newest first, with attempt counts.
func (l *Library) Catalog(ctx context.Context) ([]Summary, error) {
	recs, err := l.quizzes.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		h, err := l.histories.Load(ctx, rec.Hash)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{Quiz: rec, AttemptCount: h.AttemptCount, Best: h.BestAttempt})
	}
	return out, nil
}
