package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"
	"github.com/Veraticus/dear-diary/internal/zeroshot"
)

func TestImport(t *testing.T) {
	j, db := newTestJournal(t, zeroshot.NewStaticPipeline(goalScores(t)))
	ctx := context.Background()

	calls := 0
	summary, err := j.Import(ctx, model.DefaultUserID, []string{
		"I want to save $200 for a guitar",
		"",
		"I want to save $200 for a guitar again",
		strings.Repeat("z", 6000),
	}, func() { calls++ })
	require.NoError(t, err)

	assert.Equal(t, 4, calls)
	assert.Equal(t, ImportSummary{
		Submitted:       3,
		Rejected:        1,
		Unclassified:    1,
		GoalsCreated:    1,
		GoalsProgressed: 1,
	}, summary)

	entries, err := j.ListEntries(ctx, model.DefaultUserID, service.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, model.CategoryUnknown, entries[0].MainCategory, "oversized text is kept")
	assert.Len(t, db.MustGoals(), 1)
}

func TestImport_CanceledContext(t *testing.T) {
	j, _ := newTestJournal(t, zeroshot.NewKeywordPipeline())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := j.Import(ctx, model.DefaultUserID, []string{"one"}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Submitted)
}

func TestSplitEntries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "paragraphs", input: "first line\ncontinues\n\nsecond\n", want: []string{"first line continues", "second"}},
		{name: "extra blank lines", input: "\n\n  a  \n\n\n\tb\n\n", want: []string{"a", "b"}},
		{name: "empty", input: "", want: nil},
		{name: "crlf", input: "one\r\n\r\ntwo", want: []string{"one", "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitEntries(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
