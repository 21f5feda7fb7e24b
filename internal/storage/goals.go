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

const dueDateLayout = "2006-01-02"

const goalColumns = `goal_id, user_id, goal_text, category, sub_category,
	target_amount, current_amount, due_date, status, notes, created_at, updated_at`

// InsertGoal persists a draft for a user. An empty status becomes planned.
func (s *SQLiteStorage) InsertGoal(ctx context.Context, userID model.UserID, draft model.GoalDraft) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateDraft(draft); err != nil {
		return 0, err
	}
	return insertGoal(ctx, s.db, userID, draft)
}

// GetGoal retrieves a goal by ID.
func (s *SQLiteStorage) GetGoal(ctx context.Context, goalID int64) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getGoal(ctx, s.db, goalID)
}

// UpdateGoal overwrites a goal's text and status.
func (s *SQLiteStorage) UpdateGoal(ctx context.Context, goalID int64, text string, status model.GoalStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoalUpdate(text, status); err != nil {
		return err
	}
	return updateGoal(ctx, s.db, goalID, text, status)
}

// ListGoals returns a user's goals, most recently created first.
func (s *SQLiteStorage) ListGoals(ctx context.Context, userID model.UserID) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listGoals(ctx, s.db, userID)
}

// SearchGoalsByText finds a user's goals whose text contains any of the
// tokens, case-insensitively, most recent first.
func (s *SQLiteStorage) SearchGoalsByText(ctx context.Context, userID model.UserID, tokens []string, limit int) ([]model.GoalMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return searchGoalsByText(ctx, s.db, userID, tokens, limit)
}

func insertGoal(ctx context.Context, q dbtx, userID model.UserID, draft model.GoalDraft) (int64, error) {
	status := draft.Status
	if status == "" {
		status = model.GoalPlanned
	}

	var dueDate sql.NullString
	if draft.DueDate != nil {
		dueDate = sql.NullString{String: draft.DueDate.Format(dueDateLayout), Valid: true}
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO goals (
			user_id, goal_text, category, sub_category, target_amount,
			due_date, status, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(userID),
		draft.Text,
		nullString(draft.Category),
		nullString(draft.SubCategory),
		nullFloat(draft.TargetAmount),
		dueDate,
		string(status),
		nullString(draft.Notes),
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert goal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get goal ID: %w", err)
	}
	return id, nil
}

func getGoal(ctx context.Context, q dbtx, goalID int64) (*model.Goal, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE goal_id = ?`,
		goalID,
	)
	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal %d: %w", goalID, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func updateGoal(ctx context.Context, q dbtx, goalID int64, text string, status model.GoalStatus) error {
	result, err := q.ExecContext(ctx,
		`UPDATE goals SET goal_text = ?, status = ?, updated_at = ? WHERE goal_id = ?`,
		text, string(status), time.Now().UTC(), goalID,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return requireAffected(result, "goal", goalID)
}

func listGoals(ctx context.Context, q dbtx, userID model.UserID) ([]model.Goal, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at DESC, goal_id DESC`,
		int64(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.Goal
	for rows.Next() {
		goal, scanErr := scanGoal(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}
	return goals, nil
}

func searchGoalsByText(ctx context.Context, q dbtx, userID model.UserID, tokens []string, limit int) ([]model.GoalMatch, error) {
	if len(tokens) == 0 || limit <= 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(tokens))
	args := make([]any, 0, len(tokens)+2)
	args = append(args, int64(userID))
	for _, tok := range tokens {
		clauses = append(clauses, `LOWER(goal_text) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(tok))+"%")
	}
	args = append(args, limit)

	query := `SELECT goal_id, goal_text FROM goals
		WHERE user_id = ? AND (` + strings.Join(clauses, " OR ") + `)
		ORDER BY goal_id DESC LIMIT ?`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []model.GoalMatch
	for rows.Next() {
		var m model.GoalMatch
		if err := rows.Scan(&m.ID, &m.Text); err != nil {
			return nil, fmt.Errorf("failed to scan goal match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal matches: %w", err)
	}
	return matches, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanGoal(row rowScanner) (*model.Goal, error) {
	var (
		goal         model.Goal
		userID       int64
		category     sql.NullString
		subCategory  sql.NullString
		targetAmount sql.NullFloat64
		dueDate      sql.NullString
		status       string
		notes        sql.NullString
	)

	err := row.Scan(
		&goal.ID, &userID, &goal.Text, &category, &subCategory,
		&targetAmount, &goal.CurrentAmount, &dueDate, &status, &notes,
		&goal.CreatedAt, &goal.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}

	goal.UserID = model.UserID(userID)
	goal.Category = category.String
	goal.SubCategory = subCategory.String
	goal.Status = model.GoalStatus(status)
	goal.Notes = notes.String
	if targetAmount.Valid {
		v := targetAmount.Float64
		goal.TargetAmount = &v
	}
	if dueDate.Valid && dueDate.String != "" {
		d, parseErr := time.Parse(dueDateLayout, dueDate.String)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid due date %q on goal %d: %w", dueDate.String, goal.ID, parseErr)
		}
		goal.DueDate = &d
	}
	return &goal, nil
}
