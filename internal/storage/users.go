package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
)

// CreateUser adds a new journal owner.
func (s *SQLiteStorage) CreateUser(ctx context.Context, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}
	return createUser(ctx, s.db, username)
}

// GetUser retrieves a user by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getUser(ctx, s.db, id)
}

func createUser(ctx context.Context, q dbtx, username string) (*model.User, error) {
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (username, created_at) VALUES (?, ?)`,
		username, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("user %q: %w", username, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	return &model.User{
		ID:        model.UserID(id),
		Username:  username,
		CreatedAt: now,
	}, nil
}

func getUser(ctx context.Context, q dbtx, id model.UserID) (*model.User, error) {
	var user model.User
	var createdAt sql.NullTime
	err := q.QueryRowContext(ctx,
		`SELECT user_id, username, created_at FROM users WHERE user_id = ?`,
		int64(id),
	).Scan(&user.ID, &user.Username, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if createdAt.Valid {
		user.CreatedAt = createdAt.Time
	}
	return &user, nil
}
