package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEntry(text string, main model.Category) *model.Entry {
	return &model.Entry{
		UserID:           model.DefaultUserID,
		Text:             text,
		MainCategory:     main,
		ConfidenceScores: map[string]float64{string(main): 0.8},
		Success:          true,
	}
}

func TestMigrate(t *testing.T) {
	for _, driver := range []string{DriverCGo, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			store, err := NewSQLiteStorageWithDriver(driver, filepath.Join(t.TempDir(), "diary.db"))
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			require.NoError(t, store.Migrate(ctx))
			// Running again is a no-op.
			require.NoError(t, store.Migrate(ctx))

			version, err := store.SchemaVersion(ctx)
			require.NoError(t, err)
			assert.Equal(t, ExpectedSchemaVersion, version)

			user, err := store.GetUser(ctx, model.DefaultUserID)
			require.NoError(t, err)
			assert.Equal(t, model.DefaultUsername, user.Username)
		})
	}
}

func TestMigrationsAreOrdered(t *testing.T) {
	ms := Migrations()
	require.Len(t, ms, ExpectedSchemaVersion)
	for i, m := range ms {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Description)
	}
}

func TestNewSQLiteStorage_UnknownDriver(t *testing.T) {
	_, err := NewSQLiteStorageWithDriver("postgres", ":memory:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported sqlite driver")
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestUsers(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "alex")
	require.NoError(t, err)
	assert.Greater(t, int64(user.ID), int64(model.DefaultUserID))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alex", got.Username)

	_, err = store.CreateUser(ctx, "alex")
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = store.GetUser(ctx, 999)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransaction_CommitAndRollback(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	id, err := tx.InsertEntry(ctx, testEntry("rolled back", model.CategoryReflection))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	_, err = store.GetEntry(ctx, id)
	require.ErrorIs(t, err, common.ErrNotFound)

	tx, err = store.BeginTx(ctx)
	require.NoError(t, err)
	id, err = tx.InsertEntry(ctx, testEntry("kept", model.CategoryReflection))
	require.NoError(t, err)
	require.NoError(t, tx.InsertTags(ctx, id, []string{"Reflection"}))
	require.NoError(t, tx.Commit())

	entry, err := store.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "kept", entry.Text)
	assert.Equal(t, []string{"Reflection"}, entry.Tags)
}

func TestTransaction_Unsupported(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	require.Error(t, err)
	require.Error(t, tx.Migrate(ctx))
	require.Error(t, tx.Close())
}

func TestValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		run     func() error
		wantErr error
		name    string
	}{
		{
			name:    "nil entry",
			run:     func() error { _, err := store.InsertEntry(ctx, nil); return err },
			wantErr: ErrNilParameter,
		},
		{
			name: "entry without text",
			run: func() error {
				_, err := store.InsertEntry(ctx, testEntry("", model.CategoryGoals))
				return err
			},
			wantErr: ErrInvalidEntry,
		},
		{
			name: "goal without text",
			run: func() error {
				_, err := store.InsertGoal(ctx, model.DefaultUserID, model.GoalDraft{Text: " "})
				return err
			},
			wantErr: ErrInvalidGoal,
		},
		{
			name: "goal with bad status",
			run: func() error {
				return store.UpdateGoal(ctx, 1, "save", model.GoalStatus("someday"))
			},
			wantErr: ErrInvalidStatus,
		},
		{
			name: "link with bad type",
			run: func() error {
				_, err := store.InsertGoalLink(ctx, 1, 1, model.LinkType("mentioned"))
				return err
			},
			wantErr: ErrInvalidLinkType,
		},
		{
			name: "link with zero goal",
			run: func() error {
				_, err := store.InsertGoalLink(ctx, 0, 1, model.LinkProgress)
				return err
			},
			wantErr: ErrInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.run(), tt.wantErr)
		})
	}
}
