package library

import (
	"context"
	"fmt"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
)

// Start builds a shuffled session for quiz. Failed-only mode draws from
// the questions the stored history marks as failed.
func (l *Library) Start(ctx context.Context, quiz *store.QuizRecord, opts session.Options) (*session.Session, error) {
	if opts.Mode == history.ModeFailedOnly {
		h, err := l.histories.Load(ctx, quiz.Hash)
		if err != nil {
			return nil, err
		}
		opts.Failed = h.FailedKeys()
	}
	return l.builder.Build(quiz.Questions, opts)
}

// Complete registers the finished session against the quiz's history and
// persists it.
func (l *Library) Complete(ctx context.Context, hash string, s *session.Session) (history.Attempt, *history.History, error) {
	return l.record(ctx, hash, s.Result(l.now()))
}

// UnknownQuestionError reports a submitted answer for a question the quiz
// does not contain.
type UnknownQuestionError struct {
	Key string
}

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("quiz has no question %q", e.Key)
}

// Submit grades answers given outside a Session, keyed by question id and
// holding option ids. An empty option id means the question was left
// unanswered. Only the answered keys count toward the attempt.
func (l *Library) Submit(ctx context.Context, quiz *store.QuizRecord, mode history.Mode, answers map[string]string) (history.Attempt, *history.History, error) {
	if len(answers) == 0 {
		return history.Attempt{}, nil, session.ErrNoQuestions
	}

	byKey := make(map[string]bank.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byKey[q.Key()] = q
	}

	for key, optionID := range answers {
		q, ok := byKey[key]
		if !ok {
			return history.Attempt{}, nil, &UnknownQuestionError{Key: key}
		}
		if optionID != "" {
			if _, ok := q.Option(optionID); !ok {
				return history.Attempt{}, nil, fmt.Errorf("%w: %s", session.ErrUnknownOption, optionID)
			}
		}
	}

	r := history.Result{Mode: mode, Incorrect: map[string]bool{}, CompletedAt: l.now()}
	// Walk the quiz in order so stats are created deterministically.
	for _, q := range quiz.Questions {
		optionID, ok := answers[q.Key()]
		if !ok {
			continue
		}
		r.Questions = append(r.Questions, q)
		r.Total++
		if opt, ok := q.Option(optionID); ok && opt.Correct {
			r.Score++
		} else {
			r.Incorrect[q.Key()] = true
		}
	}
	return l.record(ctx, quiz.Hash, r)
}

func (l *Library) record(ctx context.Context, hash string, r history.Result) (history.Attempt, *history.History, error) {
	h, err := l.histories.Load(ctx, hash)
	if err != nil {
		return history.Attempt{}, nil, err
	}
	a := h.RegisterAttempt(r)
	if err := l.histories.Save(ctx, hash, h); err != nil {
		return a, h, fmt.Errorf("save history: %w", err)
	}
	return a, h, nil
}
