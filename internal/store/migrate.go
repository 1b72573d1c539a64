package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/quizpulse/quizpulse/ent/schema"
)

// SchemaVersion is recorded in PRAGMA user_version. Version 2 added the
// settings table. Upgrades only add tables and indexes.
const SchemaVersion = 2

const (
	quizzesTable  = "quizzes"
	historyTable  = "quiz_history"
	settingsTable = "settings"
)

// tableSpec binds a table name to the ent schema that defines its columns
// and to the schema version that introduced it.
type tableSpec struct {
	name   string
	def    ent.Interface
	sinceV int
}

var tableSpecs = []tableSpec{
	{quizzesTable, entschema.Quiz{}, 1},
	{historyTable, entschema.QuizHistory{}, 1},
	{settingsTable, entschema.Setting{}, 2},
}

// Tables returns the tables present at the given schema version.
func Tables(version int) []*schema.Table {
	var out []*schema.Table
	for _, spec := range tableSpecs {
		if spec.sinceV <= version {
			out = append(out, tableFromSchema(spec.name, spec.def))
		}
	}
	return out
}

// tableFromSchema converts an ent schema definition into a migration table:
// an auto-increment id primary key followed by the schema's fields and
// indexes in declaration order.
func tableFromSchema(name string, def ent.Interface) *schema.Table {
	id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
	t := &schema.Table{
		Name:       name,
		Columns:    []*schema.Column{id},
		PrimaryKey: []*schema.Column{id},
	}

	byName := map[string]*schema.Column{"id": id}
	for _, f := range def.Fields() {
		d := f.Descriptor()
		c := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional || d.Nillable,
			Size:     int64(d.Size),
			Comment:  d.Comment,
		}
		t.Columns = append(t.Columns, c)
		byName[d.Name] = c
	}

	for _, idx := range def.Indexes() {
		d := idx.Descriptor()
		cols := make([]*schema.Column, 0, len(d.Fields))
		for _, f := range d.Fields {
			cols = append(cols, byName[f])
		}
		t.Indexes = append(t.Indexes, &schema.Index{
			Name:    name + "_" + strings.Join(d.Fields, "_"),
			Unique:  d.Unique,
			Columns: cols,
		})
	}
	return t
}

// migrate creates missing tables and indexes, then records SchemaVersion.
// Existing rows are never touched.
func migrate(ctx context.Context, drv dialect.Driver) error {
	current, err := userVersion(ctx, drv)
	if err != nil {
		return err
	}
	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables(SchemaVersion)...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if current == SchemaVersion {
		return nil
	}
	// PRAGMA statements do not accept bound parameters.
	q := fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)
	if err := drv.Exec(ctx, q, []any{}, nil); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

func userVersion(ctx context.Context, drv dialect.Driver) (int, error) {
	rows := &entsql.Rows{}
	if err := drv.Query(ctx, "PRAGMA user_version", []any{}, rows); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	defer rows.Close()

	var v int
	if rows.Next() {
		if err := rows.Scan(&v); err != nil {
			return 0, fmt.Errorf("scan schema version: %w", err)
		}
	}
	return v, rows.Err()
}
