package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/dear-diary/internal/goals"
	"github.com/Veraticus/dear-diary/internal/model"
)

func TestFormatClassification(t *testing.T) {
	sub := 0.61
	result := model.ClassificationResult{
		Entry:             "Saved $200 toward the trip",
		MainCategory:      model.CategoryGoals,
		SecondaryCategory: model.CategoryPlans,
		SubCategory:       "Savings/Finance",
		SubConfidence:     &sub,
		ConfidenceScores:  map[string]float64{"Goals": 0.7, "Plans": 0.3, "Health": 0.01},
		ProcessingTime:    42 * time.Millisecond,
		Success:           true,
	}

	out := FormatClassification(result)
	assert.Contains(t, out, "Goals (0.700)")
	assert.Contains(t, out, "Plans (0.300)")
	assert.Contains(t, out, "Savings/Finance (0.610)")
	assert.Contains(t, out, "Took 42ms")

	failed := model.FailedClassification("", "entry is empty", 0)
	assert.Contains(t, FormatClassification(failed), "Classification failed: entry is empty")
}

func TestFormatOutcome(t *testing.T) {
	assert.Contains(t, FormatOutcome(goals.Outcome{}), "No goal changes")

	out := FormatOutcome(goals.Outcome{Created: []int64{4}, Progressed: []int64{1, 2}, Completed: []int64{3}})
	assert.Contains(t, out, "Created goal #4")
	assert.Contains(t, out, "Progress on goal #1, #2")
	assert.Contains(t, out, "Completed goal #3")
}

func TestTables(t *testing.T) {
	target := 500.0
	due := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	goalOut := GoalTable([]model.Goal{
		{ID: 7, Text: "save $500 by June", Status: model.GoalInProgress, SubCategory: "Savings/Finance", TargetAmount: &target, DueDate: &due},
	})
	for _, want := range []string{"ID", "Status", "7", "in_progress", "500.00", "2026-06-30", "save $500 by June"} {
		assert.Contains(t, goalOut, want)
	}

	entryOut := EntryTable([]model.Entry{{ID: 3, Text: "line one\nline two", MainCategory: model.CategoryHealth}})
	assert.Contains(t, entryOut, "line one line two")
	assert.Contains(t, entryOut, "Health")

	linkOut := LinkTable([]model.GoalLink{{EntryID: 9, LinkType: model.LinkCompleted}})
	assert.Contains(t, linkOut, "completed")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		n    int
	}{
		{name: "short", in: "hello", n: 10, want: "hello"},
		{name: "exact", in: "hello", n: 5, want: "hello"},
		{name: "cut", in: "hello world", n: 6, want: "hello…"},
		{name: "runes", in: "café au lait", n: 5, want: "café…"},
		{name: "whitespace", in: " a\n\tb ", n: 10, want: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

func TestNewProgress(t *testing.T) {
	var buf bytes.Buffer
	step := NewProgress(&buf, 2, "Importing")
	step()
	step()
	assert.Contains(t, buf.String(), "2/2")
}
