package goals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/testutil"
)

func TestReconcile_CreatesThenProgresses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(db.Storage, nil, nil)
	ctx := context.Background()

	const text = "I want to save $500 by June"

	first, err := r.Reconcile(ctx, model.DefaultUserID, 1, text, model.CategoryGoals, "")
	require.NoError(t, err)
	require.Len(t, first.Created, 1)
	assert.Empty(t, first.Progressed)
	assert.Empty(t, first.Completed)

	goals := db.MustGoals()
	require.Len(t, goals, 1)
	goal := goals[0]
	assert.Equal(t, text, goal.Text)
	assert.Equal(t, GoalCategory, goal.Category)
	assert.Equal(t, "Savings/Finance", goal.SubCategory)
	assert.Equal(t, model.GoalPlanned, goal.Status)
	require.NotNil(t, goal.TargetAmount)
	assert.InDelta(t, 500.0, *goal.TargetAmount, 1e-9)

	second, err := r.Reconcile(ctx, model.DefaultUserID, 2, text, model.CategoryGoals, "")
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Equal(t, []int64{goal.ID}, second.Progressed)

	assert.Len(t, db.MustGoals(), 1)
	links := db.MustLinks(goal.ID)
	require.Len(t, links, 2)
	assert.Equal(t, model.LinkCreated, links[0].LinkType)
	assert.Equal(t, int64(1), links[0].EntryID)
	assert.Equal(t, model.LinkProgress, links[1].LinkType)
	assert.Equal(t, int64(2), links[1].EntryID)
}

func TestReconcile_CompletesMatchingGoal(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Goals: []string{"run a marathon"},
	})
	r := NewReconciler(db.Storage, nil, nil)
	ctx := context.Background()

	outcome, err := r.Reconcile(ctx, model.DefaultUserID, 7, "I finally finished my marathon goal", model.CategoryReflection, "")
	require.NoError(t, err)

	goals := db.MustGoals()
	require.Len(t, goals, 1)
	assert.Equal(t, model.GoalCompleted, goals[0].Status)
	assert.Equal(t, "run a marathon", goals[0].Text)
	assert.Equal(t, []int64{goals[0].ID}, outcome.Completed)
	assert.Empty(t, outcome.Created)

	links := db.MustLinks(goals[0].ID)
	require.Len(t, links, 1)
	assert.Equal(t, model.LinkCompleted, links[0].LinkType)
	assert.Equal(t, int64(7), links[0].EntryID)
}

func TestReconcile_GoalEntryThatAlsoCompletes(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Goals: []string{"run a marathon"},
	})
	r := NewReconciler(db.Storage, nil, nil)

	outcome, err := r.Reconcile(context.Background(), model.DefaultUserID, 3,
		"I finally finished my marathon goal", model.CategoryGoals, "Health/Fitness")
	require.NoError(t, err)

	id := db.MustGoals()[0].ID
	assert.Equal(t, []int64{id}, outcome.Progressed)
	assert.Equal(t, []int64{id}, outcome.Completed)

	links := db.MustLinks(id)
	require.Len(t, links, 2)
	assert.Equal(t, model.LinkProgress, links[0].LinkType)
	assert.Equal(t, model.LinkCompleted, links[1].LinkType)
}

func TestReconcile_CompletionWithoutMatchChangesNothing(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Goals: []string{"learn piano"},
	})
	r := NewReconciler(db.Storage, nil, nil)

	outcome, err := r.Reconcile(context.Background(), model.DefaultUserID, 1,
		"I finally finished the puzzle", model.CategoryReflection, "")
	require.NoError(t, err)
	assert.True(t, outcome.Empty())

	goals := db.MustGoals()
	require.Len(t, goals, 1)
	assert.Equal(t, model.GoalPlanned, goals[0].Status)
	assert.Empty(t, db.MustLinks(goals[0].ID))
}

func TestReconcile_NonGoalEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(db.Storage, nil, nil)

	outcome, err := r.Reconcile(context.Background(), model.DefaultUserID, 1,
		"Grateful for a quiet evening", model.CategoryGratitude, "Small Joys")
	require.NoError(t, err)
	assert.True(t, outcome.Empty())
	assert.Empty(t, db.MustGoals())
}

// twoDrafts yields the same draft twice so the per-draft matching can be
// observed.
type twoDrafts struct{}

func (twoDrafts) Extract(text string, _ model.Category, _ string) []model.GoalDraft {
	d := model.GoalDraft{Text: text, Category: GoalCategory, Status: model.GoalPlanned}
	return []model.GoalDraft{d, d}
}

func TestReconcile_MultipleDraftsWithExistingGoal(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Goals: []string{"save for a laptop"},
	})
	r := NewReconciler(db.Storage, twoDrafts{}, nil)

	outcome, err := r.Reconcile(context.Background(), model.DefaultUserID, 4,
		"saving for the laptop", model.CategoryGoals, "")
	require.NoError(t, err)

	// Every draft re-matches the entry text, so both land on the same goal.
	id := db.MustGoals()[0].ID
	assert.Equal(t, []int64{id, id}, outcome.Progressed)
	assert.Empty(t, outcome.Created)
	assert.Len(t, db.MustLinks(id), 2)
}

func TestReconcile_MultipleDraftsWithoutGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(db.Storage, twoDrafts{}, nil)

	outcome, err := r.Reconcile(context.Background(), model.DefaultUserID, 4,
		"new laptop fund", model.CategoryGoals, "")
	require.NoError(t, err)

	// The second draft finds the goal the first one created.
	goals := db.MustGoals()
	require.Len(t, goals, 1)
	assert.Equal(t, []int64{goals[0].ID}, outcome.Created)
	assert.Equal(t, []int64{goals[0].ID}, outcome.Progressed)

	links := db.MustLinks(goals[0].ID)
	require.Len(t, links, 2)
	assert.Equal(t, model.LinkCreated, links[0].LinkType)
	assert.Equal(t, model.LinkProgress, links[1].LinkType)
}

type fakeStore struct {
	searchErr error
	insertErr error
	updateErr error
	linkErr   error
	matches   []model.GoalMatch
	inserted  []model.GoalDraft
	updated   []int64
	links     []model.LinkType
}

func (f *fakeStore) SearchGoalsByText(_ context.Context, _ model.UserID, _ []string, _ int) ([]model.GoalMatch, error) {
	return f.matches, f.searchErr
}

func (f *fakeStore) InsertGoal(_ context.Context, _ model.UserID, draft model.GoalDraft) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, draft)
	return int64(len(f.inserted)), nil
}

func (f *fakeStore) UpdateGoal(_ context.Context, goalID int64, _ string, _ model.GoalStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, goalID)
	return nil
}

func (f *fakeStore) InsertGoalLink(_ context.Context, _, _ int64, linkType model.LinkType) (int64, error) {
	if f.linkErr != nil {
		return 0, f.linkErr
	}
	f.links = append(f.links, linkType)
	return int64(len(f.links)), nil
}

func TestReconcile_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		store *fakeStore
		name  string
		text  string
	}{
		{name: "search", store: &fakeStore{searchErr: boom}, text: "I want to run daily"},
		{name: "insert goal", store: &fakeStore{insertErr: boom}, text: "I want to run daily"},
		{name: "link", store: &fakeStore{linkErr: boom}, text: "I want to run daily"},
		{
			name:  "complete",
			store: &fakeStore{updateErr: boom, matches: []model.GoalMatch{{ID: 9, Text: "run daily"}}},
			text:  "I finally finished",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(tt.store, nil, nil)
			_, err := r.Reconcile(context.Background(), model.DefaultUserID, 1, tt.text, model.CategoryReflection, "")
			require.ErrorIs(t, err, boom)
		})
	}
}

func TestReconcile_UsesTopMatch(t *testing.T) {
	store := &fakeStore{matches: []model.GoalMatch{{ID: 9, Text: "newest"}, {ID: 3, Text: "older"}}}
	r := NewReconciler(store, nil, nil)

	outcome, err := r.Reconcile(context.Background(), model.DefaultUserID, 1,
		"I will keep my streak, I saved today", model.CategoryHabits, "")
	require.NoError(t, err)

	assert.Equal(t, []int64{9}, outcome.Progressed)
	assert.Equal(t, []int64{9}, outcome.Completed)
	assert.Equal(t, []int64{9}, store.updated)
	assert.Equal(t, []model.LinkType{model.LinkProgress, model.LinkCompleted}, store.links)
	assert.Empty(t, store.inserted)
}

func TestOutcome(t *testing.T) {
	assert.True(t, Outcome{}.Empty())
	o := Outcome{Created: []int64{1}, Completed: []int64{2}}
	assert.False(t, o.Empty())
	assert.Equal(t, "created=[1] progressed=[] completed=[2]", o.String())
}
