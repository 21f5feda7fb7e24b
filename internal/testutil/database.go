// Package testutil provides shared helpers for tests that need a real
// journal database.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"
	"github.com/Veraticus/dear-diary/internal/storage"
)

// TestDB represents a migrated in-memory database.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database with migrations applied.
// Cleanup is registered on t.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Goals          []string
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options. Goals
// are inserted for the default user in the order given.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	t.Cleanup(func() {
		_ = store.Close()
	})

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for _, text := range opts.Goals {
		if _, err := store.InsertGoal(ctx, model.DefaultUserID, model.GoalDraft{Text: text}); err != nil {
			t.Fatalf("failed to seed goal %q: %v", text, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustGoals returns the default user's goals or fails the test.
func (db *TestDB) MustGoals() []model.Goal {
	db.t.Helper()
	goals, err := db.Storage.ListGoals(context.Background(), model.DefaultUserID)
	if err != nil {
		db.t.Fatalf("failed to list goals: %v", err)
	}
	return goals
}

// MustLinks returns the links of a goal or fails the test.
func (db *TestDB) MustLinks(goalID int64) []model.GoalLink {
	db.t.Helper()
	links, err := db.Storage.ListGoalLinks(context.Background(), goalID)
	if err != nil {
		db.t.Fatalf("failed to list links for goal %d: %v", goalID, err)
	}
	return links
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
