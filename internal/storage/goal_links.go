package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/dear-diary/internal/model"
)

// InsertGoalLink records that an entry relates to a goal.
func (s *SQLiteStorage) InsertGoalLink(ctx context.Context, goalID, entryID int64, linkType model.LinkType) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateLink(goalID, entryID, linkType); err != nil {
		return 0, err
	}
	return insertGoalLink(ctx, s.db, goalID, entryID, linkType)
}

// ListGoalLinks returns every link to a goal in insertion order.
func (s *SQLiteStorage) ListGoalLinks(ctx context.Context, goalID int64) ([]model.GoalLink, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listLinks(ctx, s.db, "goal_id", goalID)
}

// ListLinksForEntry returns every link from an entry in insertion order.
func (s *SQLiteStorage) ListLinksForEntry(ctx context.Context, entryID int64) ([]model.GoalLink, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listLinks(ctx, s.db, "entry_id", entryID)
}

func insertGoalLink(ctx context.Context, q dbtx, goalID, entryID int64, linkType model.LinkType) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO goal_links (goal_id, entry_id, link_type, created_at) VALUES (?, ?, ?, ?)`,
		goalID, entryID, string(linkType), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert goal link: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get goal link ID: %w", err)
	}
	return id, nil
}

// listLinks filters on column, which is always one of the two constants
// passed by this package.
func listLinks(ctx context.Context, q dbtx, column string, id int64) ([]model.GoalLink, error) {
	if column != "goal_id" && column != "entry_id" {
		return nil, fmt.Errorf("unsupported link filter column %q", column)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT link_id, goal_id, entry_id, link_type, created_at
		FROM goal_links WHERE `+column+` = ? ORDER BY link_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query goal links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []model.GoalLink
	for rows.Next() {
		var link model.GoalLink
		var linkType string
		if err := rows.Scan(&link.ID, &link.GoalID, &link.EntryID, &linkType, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal link: %w", err)
		}
		link.LinkType = model.LinkType(linkType)
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal links: %w", err)
	}
	return links, nil
}
