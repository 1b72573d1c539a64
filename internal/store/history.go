package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/quizpulse/quizpulse/internal/history"
)

// historyRepo implements HistoryRepo with ent's SQL builder.
type historyRepo struct {
	store *Store
}

func (r *historyRepo) Load(ctx context.Context, hash string) (*history.History, error) {
	if hash == "" {
		return history.New(), nil
	}
	drv, err := r.store.driver(ctx)
	if err != nil {
		return nil, err
	}

	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Select("attempts_history", "question_stats", "best_attempt").
		From(d.Table(historyTable)).
		Where(entsql.EQ("quiz_hash", hash)).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query history: %w", err)
		}
		return history.New(), nil
	}

	var attempts, stats, best []byte
	if err := rows.Scan(&attempts, &stats, &best); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}

	h := history.New()
	if err := json.Unmarshal(attempts, &h.AttemptsHistory); err != nil {
		return nil, fmt.Errorf("decode attempts for %s: %w", hash, err)
	}
	if err := json.Unmarshal(stats, &h.QuestionStats); err != nil {
		return nil, fmt.Errorf("decode question stats for %s: %w", hash, err)
	}
	if len(best) > 0 {
		if err := json.Unmarshal(best, &h.BestAttempt); err != nil {
			return nil, fmt.Errorf("decode best attempt for %s: %w", hash, err)
		}
	}
	h.Normalize()
	return h, nil
}

func (r *historyRepo) Save(ctx context.Context, hash string, h *history.History) error {
	if hash == "" || h == nil {
		return nil
	}
	drv, err := r.store.driver(ctx)
	if err != nil {
		return err
	}

	attempts := h.AttemptsHistory
	if attempts == nil {
		attempts = []history.Attempt{}
	}
	attemptData, err := json.Marshal(attempts)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	stats := h.QuestionStats
	if stats == nil {
		stats = map[string]history.Stat{}
	}
	statData, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal question stats: %w", err)
	}
	var best any
	if h.BestAttempt != nil {
		b, err := json.Marshal(h.BestAttempt)
		if err != nil {
			return fmt.Errorf("marshal best attempt: %w", err)
		}
		best = string(b)
	}
	now := formatTime(time.Now())

	tx, err := drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin history upsert: %w", err)
	}

	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Select("id").
		From(d.Table(historyTable)).
		Where(entsql.EQ("quiz_hash", hash)).
		Limit(1).
		Query()
	rows := &entsql.Rows{}
	if err := tx.Query(ctx, query, args, rows); err != nil {
		tx.Rollback()
		return fmt.Errorf("look up history: %w", err)
	}
	var id int
	found := rows.Next()
	if found {
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			tx.Rollback()
			return fmt.Errorf("scan history id: %w", err)
		}
	}
	rows.Close()

	if found {
		query, args = d.Update(historyTable).
			Set("attempts_history", string(attemptData)).
			Set("question_stats", string(statData)).
			Set("best_attempt", best).
			Set("updated_at", now).
			Where(entsql.EQ("id", id)).
			Query()
	} else {
		query, args = d.Insert(historyTable).
			Columns("quiz_hash", "attempts_history", "question_stats", "best_attempt", "updated_at").
			Values(hash, string(attemptData), string(statData), best, now).
			Query()
	}
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("write history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}
