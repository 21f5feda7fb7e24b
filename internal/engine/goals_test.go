package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/zeroshot"
)

func TestAddGoal(t *testing.T) {
	j, _ := newTestJournal(t, zeroshot.NewKeywordPipeline())
	ctx := context.Background()

	amount := 300.0
	goal, err := j.AddGoal(ctx, model.DefaultUserID, NewGoal{
		Text:         "  Save for a tent ",
		SubCategory:  "Savings/Finance",
		TargetAmount: &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, "Save for a tent", goal.Text)
	assert.Equal(t, model.GoalPlanned, goal.Status)
	assert.Equal(t, "Goals", goal.Category)
	require.NotNil(t, goal.TargetAmount)
	assert.InDelta(t, 300.0, *goal.TargetAmount, 1e-9)

	negative := -1.0
	tests := []struct {
		name string
		goal NewGoal
	}{
		{name: "blank text", goal: NewGoal{Text: "  "}},
		{name: "unknown status", goal: NewGoal{Text: "x", Status: "someday"}},
		{name: "negative target", goal: NewGoal{Text: "x", TargetAmount: &negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.AddGoal(ctx, model.DefaultUserID, tt.goal)
			require.ErrorIs(t, err, ErrInvalidGoal)
			assert.True(t, IsUserError(err))
		})
	}
}

func TestUpdateGoal(t *testing.T) {
	j, db := newTestJournal(t, zeroshot.NewKeywordPipeline())
	ctx := context.Background()

	goal, err := j.AddGoal(ctx, model.DefaultUserID, NewGoal{Text: "learn Portuguese"})
	require.NoError(t, err)

	updated, err := j.UpdateGoal(ctx, model.DefaultUserID, goal.ID, GoalUpdate{
		Text:   "learn Brazilian Portuguese",
		Status: model.GoalInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, "learn Brazilian Portuguese", updated.Text)
	assert.Equal(t, model.GoalInProgress, updated.Status)

	other, err := db.Storage.CreateUser(ctx, "someone")
	require.NoError(t, err)

	tests := []struct {
		want   error
		update GoalUpdate
		name   string
		user   model.UserID
		id     int64
	}{
		{name: "empty text", update: GoalUpdate{Status: model.GoalDropped}, user: model.DefaultUserID, id: goal.ID, want: ErrInvalidGoal},
		{name: "bad status", update: GoalUpdate{Text: "x", Status: "paused"}, user: model.DefaultUserID, id: goal.ID, want: ErrInvalidGoal},
		{name: "missing goal", update: GoalUpdate{Text: "x", Status: model.GoalDropped}, user: model.DefaultUserID, id: 999, want: common.ErrNotFound},
		{name: "other user", update: GoalUpdate{Text: "x", Status: model.GoalDropped}, user: other.ID, id: goal.ID, want: common.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.UpdateGoal(ctx, tt.user, tt.id, tt.update)
			require.ErrorIs(t, err, tt.want)
		})
	}

	// Failed updates leave the goal alone.
	got, err := j.GetGoal(ctx, model.DefaultUserID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalInProgress, got.Status)
}

func TestGoalLinks(t *testing.T) {
	j, _ := newTestJournal(t, zeroshot.NewStaticPipeline(goalScores(t)))
	ctx := context.Background()

	_, first, err := j.Submit(ctx, model.DefaultUserID, "I want to save for a kayak")
	require.NoError(t, err)
	require.Len(t, first.Created, 1)
	goalID := first.Created[0]

	_, done, err := j.Submit(ctx, model.DefaultUserID, "I saved enough for the kayak")
	require.NoError(t, err)
	assert.Equal(t, []int64{goalID}, done.Completed)

	links, err := j.GoalLinks(ctx, model.DefaultUserID, goalID)
	require.NoError(t, err)

	var types []model.LinkType
	for _, l := range links {
		types = append(types, l.LinkType)
	}
	assert.Equal(t, []model.LinkType{model.LinkCreated, model.LinkProgress, model.LinkCompleted}, types)

	goal, err := j.GetGoal(ctx, model.DefaultUserID, goalID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalCompleted, goal.Status)
	assert.Equal(t, "I want to save for a kayak", goal.Text)
}
