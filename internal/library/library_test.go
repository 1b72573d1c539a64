package library

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
)

const quizJSON = `[
	{"id":1,"category":"Math","question":"2+2?","options":[{"text":"4","correct":true},{"text":"5","correct":false}]},
	{"id":2,"category":"Science","question":"H2O?","options":[{"text":"Water","correct":true},{"text":"Salt","correct":false}]},
	{"id":3,"category":"Math","question":"3*3?","options":[{"text":"9","correct":true},{"text":"6","correct":false}]}
]`

func newTestLibrary(t *testing.T) (*Library, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var seed [32]byte
	lib := New(s.QuizRepo(), s.HistoryRepo(), session.NewBuilderWithSource(rand.NewChaCha8(seed)))
	lib.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return lib, s
}

func TestImport_NewThenDuplicate(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	first, err := lib.Import(ctx, []byte(quizJSON), "  Basics ")
	require.NoError(t, err)
	assert.False(t, first.Existing)
	assert.Equal(t, "Basics", first.Quiz.Name)
	assert.Equal(t, 3, first.Quiz.QuestionCount)
	assert.Equal(t, []string{"Math", "Science"}, first.Quiz.Categories)
	assert.Len(t, first.Quiz.Hash, 16)

	// Formatting differences normalize to the same content.
	again, err := lib.Import(ctx, []byte(`[
		{"id":1,"category":"Math","question":" 2+2? ","options":[{"text":"4","correct":true},{"text":"5","correct":false}]},
		{"id":2,"category":"Science","question":"H2O?","options":[{"text":"Water","correct":true},{"text":"Salt","correct":false}]},
		{"id":3,"category":"Math","question":"3*3?","options":[{"text":"9","correct":true},{"text":"6","correct":false}]}
	]`), "Other name")
	require.NoError(t, err)
	assert.True(t, again.Existing)
	assert.Equal(t, first.Quiz.ID, again.Quiz.ID)
	assert.Equal(t, "Basics", again.Quiz.Name)

	catalog, err := lib.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 1)
}

func TestImport_DefaultName(t *testing.T) {
	lib, _ := newTestLibrary(t)
	res, err := lib.Import(context.Background(), []byte(quizJSON), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, res.Quiz.Name)
}

func TestImport_ValidationErrors(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	_, err := lib.Import(ctx, []byte(`[{"question":"Q1","options":[{"text":"A","correct":true}]}]`), "x")
	assert.ErrorIs(t, err, bank.ErrMinOptions)

	_, err = lib.Import(ctx, []byte(""), "x")
	var pe *bank.ParseError
	assert.ErrorAs(t, err, &pe)

	catalog, err := lib.Catalog(ctx)
	require.NoError(t, err)
	assert.Empty(t, catalog)
}

func TestCommit_RaceReturnsExisting(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	// Two imports prepared before either is saved.
	a, err := lib.Prepare(ctx, []byte(quizJSON))
	require.NoError(t, err)
	b, err := lib.Prepare(ctx, []byte(quizJSON))
	require.NoError(t, err)
	require.Nil(t, b.Existing)

	first, err := lib.Commit(ctx, a, "A")
	require.NoError(t, err)
	second, err := lib.Commit(ctx, b, "B")
	require.NoError(t, err)
	assert.True(t, second.Existing)
	assert.Equal(t, first.Quiz.ID, second.Quiz.ID)
}

func TestSuggestName(t *testing.T) {
	tests := map[string]string{
		"world_capitals.json":      "world capitals",
		"Final-Exam.JSON":          "Final Exam",
		"/tmp/dir/my_quiz-v2.json": "my quiz v2",
		"notes.txt":                "notes.txt",
		".json":                    DefaultName,
		"__.json":                  DefaultName,
		"":                         DefaultName,
	}
	for in, want := range tests {
		assert.Equal(t, want, SuggestName(in), "SuggestName(%q)", in)
	}
}

func TestResolve(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	res, err := lib.Import(ctx, []byte(quizJSON), "Basics")
	require.NoError(t, err)

	byID, err := lib.Resolve(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, res.Quiz.Hash, byID.Hash)

	byHash, err := lib.Resolve(ctx, res.Quiz.Hash)
	require.NoError(t, err)
	assert.Equal(t, res.Quiz.ID, byHash.ID)

	_, err = lib.Resolve(ctx, "42")
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestPlayCompleteAndFailedOnly(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	res, err := lib.Import(ctx, []byte(quizJSON), "Basics")
	require.NoError(t, err)

	_, err = lib.Start(ctx, res.Quiz, session.Options{Mode: history.ModeFailedOnly})
	assert.ErrorIs(t, err, session.ErrNoQuestions)

	s, err := lib.Start(ctx, res.Quiz, session.Options{})
	require.NoError(t, err)
	missed := ""
	for !s.Done() {
		q, _ := s.Current()
		c, _ := q.CorrectOption()
		if q.Key() == "2" {
			missed = q.Key()
			_, err = s.Timeout()
		} else {
			_, err = s.Answer(c.ID)
		}
		require.NoError(t, err)
		s.Advance()
	}
	require.Equal(t, "2", missed)

	attempt, h, err := lib.Complete(ctx, res.Quiz.Hash, s)
	require.NoError(t, err)
	assert.Equal(t, 1, attempt.Number)
	assert.Equal(t, 66.67, attempt.Percentage)
	assert.Equal(t, 1, h.QuestionStats["2"].Failures)

	retry, err := lib.Start(ctx, res.Quiz, session.Options{Mode: history.ModeFailedOnly, Category: "Math"})
	require.NoError(t, err)
	require.Len(t, retry.Questions, 1)
	assert.Equal(t, "2", retry.Questions[0].Key())

	stored, err := lib.History(ctx, res.Quiz.Hash)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AttemptCount)
}

func TestReimportReattachesHistory(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	res, err := lib.Import(ctx, []byte(quizJSON), "Basics")
	require.NoError(t, err)

	_, _, err = lib.Submit(ctx, res.Quiz, history.ModeFull, map[string]string{"1": "1-opt-1"})
	require.NoError(t, err)

	again, err := lib.Import(ctx, []byte(quizJSON), "Basics")
	require.NoError(t, err)
	h, err := lib.History(ctx, again.Quiz.Hash)
	require.NoError(t, err)
	assert.Equal(t, 1, h.AttemptCount)
}

func TestSubmit(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	res, err := lib.Import(ctx, []byte(quizJSON), "Basics")
	require.NoError(t, err)

	attempt, h, err := lib.Submit(ctx, res.Quiz, history.ModeFull, map[string]string{
		"1": "1-opt-1",
		"2": "2-opt-2",
		"3": "",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempt.Score)
	assert.Equal(t, 3, attempt.Total)
	assert.Equal(t, 33.33, attempt.Percentage)
	assert.Equal(t, 1, h.QuestionStats["3"].Failures)
	assert.Equal(t, 0, h.QuestionStats["1"].Failures)

	_, _, err = lib.Submit(ctx, res.Quiz, history.ModeFull, map[string]string{"9": "9-opt-1"})
	var uq *UnknownQuestionError
	assert.ErrorAs(t, err, &uq)

	_, _, err = lib.Submit(ctx, res.Quiz, history.ModeFull, map[string]string{"1": "2-opt-1"})
	assert.ErrorIs(t, err, session.ErrUnknownOption)

	_, _, err = lib.Submit(ctx, res.Quiz, history.ModeFull, nil)
	assert.True(t, errors.Is(err, session.ErrNoQuestions))

	stored, err := lib.History(ctx, res.Quiz.Hash)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AttemptCount, "rejected submissions must not be recorded")
}

func TestDelete(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	res, err := lib.Import(ctx, []byte(quizJSON), "Basics")
	require.NoError(t, err)
	_, _, err = lib.Submit(ctx, res.Quiz, history.ModeFull, map[string]string{"1": "1-opt-1"})
	require.NoError(t, err)

	deleted, err := lib.Delete(ctx, res.Quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Quiz.Hash, deleted.Hash)

	h, err := lib.History(ctx, res.Quiz.Hash)
	require.NoError(t, err)
	assert.Equal(t, 0, h.AttemptCount)
	assert.Nil(t, h.BestAttempt)

	_, err = lib.Delete(ctx, res.Quiz.ID)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}
