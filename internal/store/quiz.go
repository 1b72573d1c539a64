package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

var quizColumns = []string{"id", "hash", "name", "normalized_data", "question_count", "categories", "imported_at"}

// quizRepo implements QuizRepo with ent's SQL builder.
type quizRepo struct {
	store *Store
}

func (r *quizRepo) Save(ctx context.Context, rec *QuizRecord) (int, error) {
	drv, err := r.store.driver(ctx)
	if err != nil {
		return 0, err
	}

	data, err := json.Marshal(rec.Questions)
	if err != nil {
		return 0, fmt.Errorf("marshal questions: %w", err)
	}
	cats := rec.Categories
	if cats == nil {
		cats = []string{}
	}
	catData, err := json.Marshal(cats)
	if err != nil {
		return 0, fmt.Errorf("marshal categories: %w", err)
	}
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(quizzesTable).
		Columns("hash", "name", "normalized_data", "question_count", "categories", "imported_at").
		Values(rec.Hash, rec.Name, string(data), rec.QuestionCount, string(catData), formatTime(rec.ImportedAt)).
		Query()

	var res sql.Result
	if err := drv.Exec(ctx, query, args, &res); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return 0, &DuplicateHashError{Hash: rec.Hash}
		}
		return 0, fmt.Errorf("save quiz: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read quiz id: %w", err)
	}
	rec.ID = int(id)
	return rec.ID, nil
}

func (r *quizRepo) ByHash(ctx context.Context, hash string) (*QuizRecord, error) {
	return r.one(ctx, entsql.EQ("hash", hash))
}

func (r *quizRepo) ByID(ctx context.Context, id int) (*QuizRecord, error) {
	return r.one(ctx, entsql.EQ("id", id))
}

func (r *quizRepo) one(ctx context.Context, pred *entsql.Predicate) (*QuizRecord, error) {
	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Select(quizColumns...).
		From(d.Table(quizzesTable)).
		Where(pred).
		Limit(1).
		Query()

	recs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (r *quizRepo) All(ctx context.Context) ([]QuizRecord, error) {
	d := entsql.Dialect(dialect.SQLite)
	// Insertion order, not imported_at: timestamps can tie.
	query, args := d.Select(quizColumns...).
		From(d.Table(quizzesTable)).
		OrderBy(entsql.Desc("id")).
		Query()
	return r.query(ctx, query, args)
}

func (r *quizRepo) query(ctx context.Context, query string, args []any) ([]QuizRecord, error) {
	drv, err := r.store.driver(ctx)
	if err != nil {
		return nil, err
	}

	rows := &entsql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	var out []QuizRecord
	for rows.Next() {
		var (
			rec      QuizRecord
			data     []byte
			catData  []byte
			imported time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Hash, &rec.Name, &data, &rec.QuestionCount, &catData, timeScanner{&imported}); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal(data, &rec.Questions); err != nil {
			return nil, fmt.Errorf("decode questions of quiz %d: %w", rec.ID, err)
		}
		if err := json.Unmarshal(catData, &rec.Categories); err != nil {
			return nil, fmt.Errorf("decode categories of quiz %d: %w", rec.ID, err)
		}
		rec.ImportedAt = imported
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return out, nil
}

func (r *quizRepo) Delete(ctx context.Context, id int, hash string) error {
	drv, err := r.store.driver(ctx)
	if err != nil {
		return err
	}

	tx, err := drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}

	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Delete(quizzesTable).Where(entsql.EQ("id", id)).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete quiz %d: %w", id, err)
	}
	query, args = d.Delete(historyTable).Where(entsql.EQ("quiz_hash", hash)).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete history %s: %w", hash, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}
