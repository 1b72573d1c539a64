package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/library"
	"github.com/quizpulse/quizpulse/internal/router"
	"github.com/quizpulse/quizpulse/internal/screens/naming"
	"github.com/quizpulse/quizpulse/internal/screens/play"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
)

const bankJSON = `[
	{"id":1,"category":"Math","question":"2+2?","options":[{"text":"4","correct":true},{"text":"5","correct":false}]},
	{"id":2,"category":"Science","question":"H2O?","options":[{"text":"Water","correct":true},{"text":"Salt","correct":false}]}
]`

// runCmd executes a fresh command tree against db and returns its output.
func runCmd(t *testing.T, db, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", db}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeBank(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "quizpulse.db")
}

func TestImportListAndDuplicate(t *testing.T) {
	db := testDB(t)
	path := writeBank(t, "world_capitals.json", bankJSON)

	out, err := runCmd(t, db, "", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Imported #1 "world capitals" (2 questions`)

	out, err = runCmd(t, db, "", "import", path, "--name", "Again")
	require.NoError(t, err)
	assert.Contains(t, out, "already in library as #1")

	out, err = runCmd(t, db, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "world capitals")
	assert.NotContains(t, out, "Again")
}

func TestList_Empty(t *testing.T) {
	out, err := runCmd(t, testDB(t), "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No quizzes yet")
}

func TestImport_InvalidBank(t *testing.T) {
	path := writeBank(t, "bad.json", `[{"id":1,"question":"Q","options":[{"text":"A","correct":true}]}]`)
	_, err := runCmd(t, testDB(t), "", "import", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bank.ErrMinOptions))
}

func TestCategories(t *testing.T) {
	db := testDB(t)
	_, err := runCmd(t, db, "", "import", writeBank(t, "b.json", bankJSON))
	require.NoError(t, err)

	out, err := runCmd(t, db, "", "categories", "1")
	require.NoError(t, err)
	assert.Equal(t, "all\nMath\nScience\n", out)
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	_, err := runCmd(t, db, "", "import", writeBank(t, "b.json", bankJSON), "--name", "Basics")
	require.NoError(t, err)

	out, err := runCmd(t, db, "n\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out, err = runCmd(t, db, "", "delete", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted #1 "Basics"`)

	_, err = runCmd(t, db, "", "delete", "1", "--yes")
	assert.True(t, errors.Is(err, library.ErrQuizNotFound))
}

func TestValidate(t *testing.T) {
	out, err := runCmd(t, testDB(t), "", "validate", writeBank(t, "b.json", bankJSON))
	require.NoError(t, err)
	assert.Contains(t, out, "questions:  2")
	assert.Contains(t, out, "categories: Math, Science")

	_, err = runCmd(t, testDB(t), "", "validate", writeBank(t, "bad.json", `{"not":"an array"}`))
	var lint *bank.LintError
	require.ErrorAs(t, err, &lint)
	assert.NotEmpty(t, lint.Problems)
}

func TestTemplate_IsImportable(t *testing.T) {
	out, err := runCmd(t, testDB(t), "", "template", "-o", "-")
	require.NoError(t, err)

	questions, err := bank.Parse([]byte(out))
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestTemplate_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "starter.json")
	_, err := runCmd(t, testDB(t), "", "template", "-o", path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExportAndHistory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	st, err := store.Open(ctx, db)
	require.NoError(t, err)
	lib := newLibrary(st)
	res, err := lib.Import(ctx, []byte(bankJSON), "Basics")
	require.NoError(t, err)
	_, _, err = lib.Submit(ctx, res.Quiz, history.ModeFull, map[string]string{"1": "1-opt-1", "2": "2-opt-2"})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runCmd(t, db, "", "export", "1", "--format", "csv", "-o", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "1,Full,1,2,50,"))

	out, err = runCmd(t, db, "", "history", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Attempts: 1")
	assert.Contains(t, out, "Most failed:")

	_, err = runCmd(t, db, "", "export", "1", "--format", "pdf")
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	db := testDB(t)

	out, err := runCmd(t, db, "", "settings", "--study", "--timer", "30", "--category", "Math")
	require.NoError(t, err)
	assert.Contains(t, out, "category: Math")
	assert.Contains(t, out, "study:    true")
	assert.Contains(t, out, "timer:    30s")

	out, err = runCmd(t, db, "", "settings", "--timer", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "timer:    off (30s when enabled)")
	assert.Contains(t, out, "category: Math")

	_, err = runCmd(t, db, "", "settings", "--timer", "2")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, testDB(t), "", "version")
	require.NoError(t, err)
	assert.Equal(t, "quizpulse (development build)\n", out)
}

func TestPlayOverrides(t *testing.T) {
	saved := store.Settings{CategoryFilter: "Math", StudyMode: true, TimerEnabled: true, TimerSeconds: 20}

	tests := []struct {
		name      string
		args      []string
		wantPrefs store.Settings
		wantOpts  session.Options
		wantErr   bool
	}{
		{
			name:      "no flags keeps saved",
			wantPrefs: saved,
			wantOpts:  session.Options{Category: "Math", Mode: history.ModeFull},
		},
		{
			name:      "timer zero disables",
			args:      []string{"--timer", "0", "--study=false"},
			wantPrefs: store.Settings{CategoryFilter: "Math", TimerSeconds: 20},
			wantOpts:  session.Options{Category: "Math", Mode: history.ModeFull},
		},
		{
			name:      "category and failed only",
			args:      []string{"--category", "Science", "--failed-only"},
			wantPrefs: store.Settings{CategoryFilter: "Science", StudyMode: true, TimerEnabled: true, TimerSeconds: 20},
			wantOpts:  session.Options{Mode: history.ModeFailedOnly},
		},
		{
			name:    "timer out of range",
			args:    []string{"--timer", "1000"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newPlayCmd()
			require.NoError(t, c.ParseFlags(tt.args))

			prefs, opts, err := playOverrides(c, saved)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefs, prefs)
			assert.Equal(t, tt.wantOpts, opts)
		})
	}
}

func TestStartPlay(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, testDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	lib := newLibrary(st)

	c := &cobra.Command{}
	c.SetContext(ctx)
	opts := session.Options{Category: session.AllCategories, Mode: history.ModeFull}

	t.Run("new file asks for a name", func(t *testing.T) {
		cmd, err := startPlay(c, lib, writeBank(t, "my_quiz.json", bankJSON), opts, play.Config{})
		require.NoError(t, err)
		msg, ok := cmd().(router.PushScreenMsg)
		require.True(t, ok)
		assert.IsType(t, &naming.NamingScreen{}, msg.Screen)
	})

	res, err := lib.Import(ctx, []byte(bankJSON), "Basics")
	require.NoError(t, err)

	t.Run("known id starts the quiz", func(t *testing.T) {
		cmd, err := startPlay(c, lib, "1", opts, play.Config{})
		require.NoError(t, err)
		msg, ok := cmd().(router.PushScreenMsg)
		require.True(t, ok)
		assert.IsType(t, &play.Screen{}, msg.Screen)
	})

	t.Run("file with known content skips naming", func(t *testing.T) {
		cmd, err := startPlay(c, lib, writeBank(t, "copy.json", bankJSON), opts, play.Config{})
		require.NoError(t, err)
		msg, ok := cmd().(router.PushScreenMsg)
		require.True(t, ok)
		assert.Equal(t, res.Quiz.Name, msg.Screen.(*play.Screen).Title())
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, err := startPlay(c, lib, "does-not-exist", opts, play.Config{})
		assert.True(t, errors.Is(err, library.ErrQuizNotFound))
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info", "json")
	require.NoError(t, err)
	logger.Info("hello", "k", "v")
	logger.Debug("hidden")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.NotContains(t, buf.String(), "hidden")

	lvl, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = newLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}
