package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/history"
)

func testDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), testDSN(t))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(t *testing.T, hash string) *QuizRecord {
	t.Helper()
	qs, err := bank.Parse([]byte(`[{"id":1,"category":"Math","question":"Q1","options":[{"text":"A","correct":true},{"text":"B","correct":false}]}]`))
	if err != nil {
		t.Fatal(err)
	}
	return &QuizRecord{
		Hash:          hash,
		Name:          "Sample " + hash,
		Questions:     qs,
		QuestionCount: len(qs),
		Categories:    []string{"Math"},
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"user_version", "2"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestReady_ConcurrentCallersShareInit(t *testing.T) {
	s := New(testDSN(t))
	t.Cleanup(func() { s.Close() })

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Ready(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if s.DB() == nil {
		t.Fatal("expected database after Ready")
	}
}

func TestReady_InitFailure(t *testing.T) {
	// A directory cannot be opened as a database file.
	s := New(t.TempDir())
	err := s.Ready(context.Background())
	var ie *InitError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InitError, got %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.QuizRepo().All(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMigrate_UpgradeFromV1KeepsData(t *testing.T) {
	ctx := context.Background()
	dsn := testDSN(t)

	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.QuizRepo().Save(ctx, sampleRecord(t, "aaaa")); err != nil {
		t.Fatal(err)
	}
	// Simulate a version 1 database: no settings table.
	if _, err := s.DB().Exec("DROP TABLE settings"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DB().Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	var v int
	if err := s.DB().QueryRow("PRAGMA user_version").Scan(&v); err != nil || v != SchemaVersion {
		t.Fatalf("user_version = %d, %v", v, err)
	}
	all, err := s.QuizRepo().All(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("quizzes after upgrade = %d, %v", len(all), err)
	}
	if _, err := s.SettingsRepo().Load(ctx); err != nil {
		t.Errorf("settings after upgrade: %v", err)
	}
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	dsn := testDSN(t)
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.DB().Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := Open(ctx, dsn); err == nil {
		t.Fatal("expected error opening a newer schema")
	}
}

func TestTables_Versions(t *testing.T) {
	if got := len(Tables(1)); got != 2 {
		t.Errorf("v1 tables = %d, want 2", got)
	}
	v2 := Tables(2)
	if len(v2) != 3 {
		t.Fatalf("v2 tables = %d, want 3", len(v2))
	}
	quiz := v2[0]
	if quiz.Name != quizzesTable || quiz.Columns[0].Name != "id" || len(quiz.Indexes) != 2 {
		t.Errorf("unexpected quizzes table: %+v", quiz)
	}
	for _, c := range quiz.Columns {
		if c.Name == "hash" && !c.Unique {
			t.Error("hash column is not unique")
		}
	}
}

func TestQuizSaveAndLookup(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	rec := sampleRecord(t, "0123456789abcdef")
	id, err := repo.Save(ctx, rec)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == 0 || rec.ID != id {
		t.Fatalf("id = %d, rec.ID = %d", id, rec.ID)
	}

	got, err := repo.ByHash(ctx, rec.Hash)
	if err != nil {
		t.Fatalf("by hash: %v", err)
	}
	if got == nil || got.ID != id || got.Name != rec.Name || got.QuestionCount != 1 {
		t.Fatalf("by hash = %+v", got)
	}
	if got.Questions[0].Options[1].ID != "1-opt-2" || !got.Questions[0].ID.IsNumber() {
		t.Errorf("questions did not round-trip: %+v", got.Questions)
	}
	if len(got.Categories) != 1 || got.Categories[0] != "Math" {
		t.Errorf("categories = %v", got.Categories)
	}
	if got.ImportedAt.IsZero() || time.Since(got.ImportedAt) > time.Minute {
		t.Errorf("imported at = %v", got.ImportedAt)
	}

	byID, err := repo.ByID(ctx, id)
	if err != nil || byID == nil || byID.Hash != rec.Hash {
		t.Errorf("by id = %+v, %v", byID, err)
	}

	missing, err := repo.ByHash(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("missing hash = %+v, %v", missing, err)
	}
}

func TestQuizSave_DuplicateHash(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	if _, err := repo.Save(ctx, sampleRecord(t, "dup")); err != nil {
		t.Fatal(err)
	}
	_, err := repo.Save(ctx, sampleRecord(t, "dup"))
	var de *DuplicateHashError
	if !errors.As(err, &de) || de.Hash != "dup" {
		t.Fatalf("expected *DuplicateHashError, got %v", err)
	}

	all, err := repo.All(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("catalog has %d entries, %v", len(all), err)
	}
}

func TestQuizAll_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	same := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, h := range []string{"first", "second", "third"} {
		rec := sampleRecord(t, h)
		rec.ImportedAt = same
		if _, err := repo.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"third", "second", "first"}
	for i, rec := range all {
		if rec.Hash != want[i] {
			t.Errorf("position %d = %s, want %s", i, rec.Hash, want[i])
		}
		if !rec.ImportedAt.Equal(same) {
			t.Errorf("imported at = %v", rec.ImportedAt)
		}
	}
}

func TestHistory_EmptyPayloads(t *testing.T) {
	s := openTestStore(t)
	repo := s.HistoryRepo()
	ctx := context.Background()

	for _, hash := range []string{"", "unknown"} {
		h, err := repo.Load(ctx, hash)
		if err != nil {
			t.Fatalf("load %q: %v", hash, err)
		}
		if h.AttemptCount != 0 || len(h.AttemptsHistory) != 0 || h.BestAttempt != nil || h.QuestionStats == nil {
			t.Errorf("load %q = %+v, want empty payload", hash, h)
		}
	}

	h := history.New()
	h.RegisterAttempt(history.Result{Score: 1, Total: 1, CompletedAt: time.Now()})
	if err := repo.Save(ctx, "", h); err != nil {
		t.Fatalf("save with empty hash: %v", err)
	}
	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM quiz_history").Scan(&n); err != nil || n != 0 {
		t.Errorf("rows after empty-hash save = %d, %v", n, err)
	}
}

func TestHistory_Upsert(t *testing.T) {
	s := openTestStore(t)
	repo := s.HistoryRepo()
	ctx := context.Background()
	qs := sampleRecord(t, "x").Questions

	h := history.New()
	h.RegisterAttempt(history.Result{Mode: history.ModeFull, Score: 0, Total: 1, Questions: qs, Incorrect: map[string]bool{"1": true}, CompletedAt: time.Now()})
	if err := repo.Save(ctx, "hash1", h); err != nil {
		t.Fatalf("insert: %v", err)
	}
	h.RegisterAttempt(history.Result{Mode: history.ModeFailedOnly, Score: 1, Total: 1, Questions: qs, CompletedAt: time.Now()})
	if err := repo.Save(ctx, "hash1", h); err != nil {
		t.Fatalf("update: %v", err)
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM quiz_history").Scan(&n); err != nil || n != 1 {
		t.Fatalf("history rows = %d, %v", n, err)
	}

	got, err := repo.Load(ctx, "hash1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AttemptCount != 2 || got.AttemptsHistory[1].Mode != history.ModeFailedOnly {
		t.Errorf("attempts = %+v", got.AttemptsHistory)
	}
	if got.BestAttempt == nil || got.BestAttempt.Percentage != 100 {
		t.Errorf("best = %+v", got.BestAttempt)
	}
	st := got.QuestionStats["1"]
	if st.Attempts != 2 || st.Failures != 1 || st.Question != "Q1" {
		t.Errorf("stat = %+v", st)
	}
}

func TestHistory_CorruptRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.HistoryRepo().Save(ctx, "bad", history.New()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DB().Exec("UPDATE quiz_history SET attempts_history = '{not json' WHERE quiz_hash = 'bad'"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.HistoryRepo().Load(ctx, "bad"); err == nil {
		t.Error("expected error for corrupt history")
	}
}

func TestDeleteCascadesHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord(t, "gone")
	id, err := s.QuizRepo().Save(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}
	h := history.New()
	h.RegisterAttempt(history.Result{Score: 1, Total: 1, Questions: rec.Questions, CompletedAt: time.Now()})
	if err := s.HistoryRepo().Save(ctx, rec.Hash, h); err != nil {
		t.Fatal(err)
	}

	if err := s.QuizRepo().Delete(ctx, id, rec.Hash); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := s.QuizRepo().ByID(ctx, id)
	if err != nil || got != nil {
		t.Errorf("quiz after delete = %+v, %v", got, err)
	}
	loaded, err := s.HistoryRepo().Load(ctx, rec.Hash)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.AttemptCount != 0 || loaded.BestAttempt != nil {
		t.Errorf("history after delete = %+v", loaded)
	}
}

func TestDelete_HistoryFailureKeepsQuiz(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord(t, "kept")
	id, err := s.QuizRepo().Save(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.DB().ExecContext(ctx, "DROP TABLE quiz_history"); err != nil {
		t.Fatal(err)
	}

	if err := s.QuizRepo().Delete(ctx, id, rec.Hash); err == nil {
		t.Fatal("expected delete to fail without the history table")
	}

	got, err := s.QuizRepo().ByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Hash != rec.Hash {
		t.Errorf("quiz after failed delete = %+v, want it rolled back into place", got)
	}
}

func TestSettings_DefaultsAndRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.SettingsRepo()
	ctx := context.Background()

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultSettings() {
		t.Errorf("defaults = %+v", got)
	}

	want := Settings{CategoryFilter: "Math", StudyMode: true, TimerEnabled: true, TimerSeconds: 45}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("loaded %+v, want %+v", got, want)
	}
}

func TestSettings_Normalized(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultTimerSeconds},
		{1, MinTimerSeconds},
		{60, 60},
		{1000, MaxTimerSeconds},
	}
	for _, tt := range tests {
		got := Settings{TimerSeconds: tt.in}.Normalized()
		if got.TimerSeconds != tt.want || got.CategoryFilter != "all" {
			t.Errorf("Normalized(%d) = %+v", tt.in, got)
		}
	}
	if d := (Settings{TimerSeconds: 30}).TimerDuration(); d != 0 {
		t.Errorf("disabled timer duration = %v", d)
	}
	if d := (Settings{TimerEnabled: true, TimerSeconds: 30}).TimerDuration(); d != 30*time.Second {
		t.Errorf("timer duration = %v", d)
	}
}

func TestTimeScanner(t *testing.T) {
	want := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	inputs := []any{
		want,
		"2025-03-01T09:30:00Z",
		"2025-03-01 09:30:00+00:00",
		[]byte("2025-03-01 09:30:00"),
		want.Unix(),
	}
	for _, in := range inputs {
		var got time.Time
		if err := (timeScanner{&got}).Scan(in); err != nil {
			t.Errorf("Scan(%v): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("Scan(%v) = %v", in, got)
		}
	}
	var got time.Time
	if err := (timeScanner{&got}).Scan(true); err == nil {
		t.Error("expected error for bool")
	}
}
