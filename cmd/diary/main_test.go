package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dear-diary/internal/classifier"
	"github.com/Veraticus/dear-diary/internal/engine"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/sheets"
	"github.com/Veraticus/dear-diary/internal/testutil"
	"github.com/Veraticus/dear-diary/internal/zeroshot"
)

// execute runs the root command against a throwaway home and database.
func execute(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DIARY_PIPELINE_BACKEND", "keyword")
	dbPath := filepath.Join(t.TempDir(), "diary.db")

	out, err := execute(t, dbPath, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")

	out, err = execute(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 3")

	out, err = execute(t, dbPath, "add", "Grateful for a quiet morning walk with my family")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved entry #1")

	out, err = execute(t, dbPath, "entries", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "quiet morning walk")

	out, err = execute(t, dbPath, "goals", "add", "Buy", "a", "kayak", "--target", "900")
	require.NoError(t, err)
	assert.Contains(t, out, "Added goal #1")

	out, err = execute(t, dbPath, "goals", "update", "1", "--status", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")

	out, err = execute(t, dbPath, "goals", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy a kayak")
	assert.Contains(t, out, "900.00")

	_, err = execute(t, dbPath, "entries", "delete", "42")
	assert.Error(t, err)

	_, err = execute(t, dbPath, "add", "   ")
	require.Error(t, err)
	assert.True(t, engine.IsUserError(err))

	out, err = execute(t, dbPath, "classify", "--json", "Went for a run")
	require.NoError(t, err)
	assert.Contains(t, out, `"main_category"`)

	out, err = execute(t, dbPath, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "diary")
}

func TestReadText(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		want  string
		args  []string
	}{
		{name: "args joined", args: []string{"ran", "5k"}, want: "ran 5k"},
		{name: "dash reads stdin", args: []string{"-"}, stdin: "from stdin\n", want: "from stdin\n"},
		{name: "no args reads stdin", stdin: "piped", want: "piped"},
		{name: "dash among args is text", args: []string{"a", "-", "b"}, want: "a - b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readText(tt.args, strings.NewReader(tt.stdin))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"", "0", "-3", "abc", "1.5"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildAndExportReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	tax := model.DefaultTaxonomy()
	goalsDesc, ok := tax.Description(model.CategoryGoals)
	require.True(t, ok)
	c := classifier.New(zeroshot.NewStaticPipeline(map[string]float64{goalsDesc: 0.9}), tax, classifier.DefaultConfig(), nil)
	journal := engine.New(db.Storage, c)

	_, outcome, err := journal.Submit(ctx, model.DefaultUserID, "I want to run a marathon this year")
	require.NoError(t, err)
	require.Len(t, outcome.Created, 1)
	_, _, err = journal.Submit(ctx, model.DefaultUserID, "I finished the marathon")
	require.NoError(t, err)

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	report, err := buildReport(ctx, journal, model.DefaultUserID, now)
	require.NoError(t, err)
	require.Len(t, report.Goals, 1)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, 3, report.Goals[0].Links, "created, progress and completed")
	assert.Equal(t, 1, report.Completed())

	mock := sheets.NewMockWriter("sheet-42")
	id, err := exportReport(ctx, mock, report)
	require.NoError(t, err)
	assert.Equal(t, "sheet-42", id)
	assert.Same(t, report, mock.LastReport())

	mock.WriteFunc = func(context.Context, *sheets.Report) (string, error) {
		return "", errors.New("quota exceeded")
	}
	_, err = exportReport(ctx, mock, report)
	assert.ErrorContains(t, err, "export failed")
}

func TestFormatImportSummary(t *testing.T) {
	out := formatImportSummary(engine.ImportSummary{Submitted: 3, Rejected: 1, GoalsCreated: 2}, 4)
	assert.Contains(t, out, "Entries read: 4")
	assert.Contains(t, out, "Saved: 3")
	assert.Contains(t, out, "Skipped (blank): 1")
	assert.Contains(t, out, "Goals created: 2")
}
