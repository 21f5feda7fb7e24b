// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/dear-diary/internal/model"
)

// EntryFilter narrows entry listings. Zero values mean no filter.
type EntryFilter struct {
	Category model.Category
	Limit    int
}

// Storage defines the contract for our persistence layer. Every
// user-scoped operation takes the owning user explicitly.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, username string) (*model.User, error)
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)

	// Entry operations
	InsertEntry(ctx context.Context, entry *model.Entry) (int64, error)
	InsertTags(ctx context.Context, entryID int64, tags []string) error
	GetEntry(ctx context.Context, entryID int64) (*model.Entry, error)
	UpdateEntry(ctx context.Context, entry *model.Entry) error
	DeleteEntry(ctx context.Context, entryID int64) error
	ListEntries(ctx context.Context, userID model.UserID, filter EntryFilter) ([]model.Entry, error)

	// Goal operations
	InsertGoal(ctx context.Context, userID model.UserID, draft model.GoalDraft) (int64, error)
	GetGoal(ctx context.Context, goalID int64) (*model.Goal, error)
	UpdateGoal(ctx context.Context, goalID int64, text string, status model.GoalStatus) error
	ListGoals(ctx context.Context, userID model.UserID) ([]model.Goal, error)
	SearchGoalsByText(ctx context.Context, userID model.UserID, tokens []string, limit int) ([]model.GoalMatch, error)

	// Goal link operations
	InsertGoalLink(ctx context.Context, goalID, entryID int64, linkType model.LinkType) (int64, error)
	ListGoalLinks(ctx context.Context, goalID int64) ([]model.GoalLink, error)
	ListLinksForEntry(ctx context.Context, entryID int64) ([]model.GoalLink, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
