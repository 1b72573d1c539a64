package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	MinTimerSeconds     = 5
	MaxTimerSeconds     = 300
	DefaultTimerSeconds = 20
)

// Settings are the persisted play preferences.
type Settings struct {
	CategoryFilter string `json:"categoryFilter"`
	StudyMode      bool   `json:"studyMode"`
	TimerEnabled   bool   `json:"timerEnabled"`
	TimerSeconds   int    `json:"timerSeconds"`
}

// DefaultSettings returns the preferences used before anything is saved.
func DefaultSettings() Settings {
	return Settings{
		CategoryFilter: "all",
		TimerSeconds:   DefaultTimerSeconds,
	}
}

// Normalized clamps the timer into range and fills an empty filter.
func (s Settings) Normalized() Settings {
	if s.CategoryFilter == "" {
		s.CategoryFilter = "all"
	}
	switch {
	case s.TimerSeconds == 0:
		s.TimerSeconds = DefaultTimerSeconds
	case s.TimerSeconds < MinTimerSeconds:
		s.TimerSeconds = MinTimerSeconds
	case s.TimerSeconds > MaxTimerSeconds:
		s.TimerSeconds = MaxTimerSeconds
	}
	return s
}

// TimerDuration returns the per-question limit, or zero when disabled.
func (s Settings) TimerDuration() time.Duration {
	if !s.TimerEnabled {
		return 0
	}
	return time.Duration(s.Normalized().TimerSeconds) * time.Second
}

// settingsRepo stores each preference as its own key row.
type settingsRepo struct {
	store *Store
}

func (r *settingsRepo) Load(ctx context.Context) (Settings, error) {
	s := DefaultSettings()
	drv, err := r.store.driver(ctx)
	if err != nil {
		return s, err
	}

	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Select("key", "value").From(d.Table(settingsTable)).Query()
	rows := &entsql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return s, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return s, fmt.Errorf("scan setting: %w", err)
		}
		var dst any
		switch key {
		case "categoryFilter":
			dst = &s.CategoryFilter
		case "studyMode":
			dst = &s.StudyMode
		case "timerEnabled":
			dst = &s.TimerEnabled
		case "timerSeconds":
			dst = &s.TimerSeconds
		default:
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return s, fmt.Errorf("decode setting %s: %w", key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return s, fmt.Errorf("iterate settings: %w", err)
	}
	return s.Normalized(), nil
}

func (r *settingsRepo) Save(ctx context.Context, s Settings) error {
	drv, err := r.store.driver(ctx)
	if err != nil {
		return err
	}
	s = s.Normalized()

	values := []struct {
		key   string
		value any
	}{
		{"categoryFilter", s.CategoryFilter},
		{"studyMode", s.StudyMode},
		{"timerEnabled", s.TimerEnabled},
		{"timerSeconds", s.TimerSeconds},
	}

	tx, err := drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin settings save: %w", err)
	}
	now := formatTime(time.Now())
	d := entsql.Dialect(dialect.SQLite)
	for _, v := range values {
		data, err := json.Marshal(v.value)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal setting %s: %w", v.key, err)
		}
		query, args := d.Insert(settingsTable).
			Columns("key", "value", "updated_at").
			Values(v.key, string(data), now).
			OnConflict(
				entsql.ConflictColumns("key"),
				entsql.ResolveWithNewValues(),
			).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			tx.Rollback()
			return fmt.Errorf("write setting %s: %w", v.key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}
