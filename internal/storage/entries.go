package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"
)

// entryColumns lists the columns scanEntry expects, in order. Tags are
// aggregated into a JSON array so one row carries the whole entry.
const entryColumns = `
	e.entry_id, e.user_id, e.entry_text, e.main_category,
	e.secondary_category, e.sub_category, e.confidence_scores, e.sub_confidence,
	e.processing_time, e.success, e.error_message, e.created_at,
	(SELECT json_group_array(tag) FROM (
		SELECT t.tag FROM tags t WHERE t.entry_id = e.entry_id ORDER BY t.tag_id
	))`

// InsertEntry stores an entry on its own transaction and returns its ID.
// Tags are not written; use InsertTags or the engine's Submit.
func (s *SQLiteStorage) InsertEntry(ctx context.Context, entry *model.Entry) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateEntry(entry); err != nil {
		return 0, err
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var insertErr error
		id, insertErr = insertEntry(ctx, tx, entry)
		return insertErr
	})
	return id, err
}

// InsertTags appends tag rows for an entry.
func (s *SQLiteStorage) InsertTags(ctx context.Context, entryID int64, tags []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(entryID, "entryID"); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertTags(ctx, tx, entryID, tags)
	})
}

// GetEntry retrieves one entry with its tags.
func (s *SQLiteStorage) GetEntry(ctx context.Context, entryID int64) (*model.Entry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getEntry(ctx, s.db, entryID)
}

// UpdateEntry rewrites an entry's text and classification and replaces its
// tags with the ones its categories derive.
func (s *SQLiteStorage) UpdateEntry(ctx context.Context, entry *model.Entry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return updateEntry(ctx, tx, entry)
	})
}

// DeleteEntry removes an entry and its tags. Goal links that reference it
// are left in place.
func (s *SQLiteStorage) DeleteEntry(ctx context.Context, entryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return deleteEntry(ctx, tx, entryID)
	})
}

// ListEntries returns a user's entries, newest first.
func (s *SQLiteStorage) ListEntries(ctx context.Context, userID model.UserID, filter service.EntryFilter) ([]model.Entry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listEntries(ctx, s.db, userID, filter)
}

func insertEntry(ctx context.Context, q dbtx, entry *model.Entry) (int64, error) {
	scores, err := marshalScores(entry.ConfidenceScores)
	if err != nil {
		return 0, err
	}

	createdAt := entry.CreatedAt.UTC()
	if entry.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO entries (
			user_id, entry_text, main_category, secondary_category, sub_category,
			confidence_scores, sub_confidence, processing_time, success,
			error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(entry.UserID),
		entry.Text,
		string(entry.MainCategory),
		nullString(string(entry.SecondaryCategory)),
		nullString(entry.SubCategory),
		scores,
		nullFloat(entry.SubConfidence),
		entry.ProcessingTime.Seconds(),
		entry.Success,
		nullString(entry.ErrorMessage),
		createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get entry ID: %w", err)
	}

	entry.ID = id
	entry.CreatedAt = createdAt
	return id, nil
}

func insertTags(ctx context.Context, q dbtx, entryID int64, tags []string) error {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO tags (entry_id, tag) VALUES (?, ?)`,
			entryID, tag,
		); err != nil {
			return fmt.Errorf("failed to insert tag %q: %w", tag, err)
		}
	}
	return nil
}

func getEntry(ctx context.Context, q dbtx, entryID int64) (*model.Entry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries e WHERE e.entry_id = ?`,
		entryID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", entryID, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func updateEntry(ctx context.Context, q dbtx, entry *model.Entry) error {
	if err := validateID(entry.ID, "entryID"); err != nil {
		return err
	}

	scores, err := marshalScores(entry.ConfidenceScores)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE entries SET
			entry_text = ?, main_category = ?, secondary_category = ?,
			sub_category = ?, confidence_scores = ?, sub_confidence = ?,
			processing_time = ?, success = ?, error_message = ?
		WHERE entry_id = ?`,
		entry.Text,
		string(entry.MainCategory),
		nullString(string(entry.SecondaryCategory)),
		nullString(entry.SubCategory),
		scores,
		nullFloat(entry.SubConfidence),
		entry.ProcessingTime.Seconds(),
		entry.Success,
		nullString(entry.ErrorMessage),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if err := requireAffected(result, "entry", entry.ID); err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM tags WHERE entry_id = ?`, entry.ID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	entry.Tags = entry.DerivedTags()
	return insertTags(ctx, q, entry.ID, entry.Tags)
}

func deleteEntry(ctx context.Context, q dbtx, entryID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM tags WHERE entry_id = ?`, entryID); err != nil {
		return fmt.Errorf("failed to delete tags: %w", err)
	}

	result, err := q.ExecContext(ctx, `DELETE FROM entries WHERE entry_id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireAffected(result, "entry", entryID)
}

func listEntries(ctx context.Context, q dbtx, userID model.UserID, filter service.EntryFilter) ([]model.Entry, error) {
	var sb strings.Builder
	args := []any{int64(userID)}

	sb.WriteString(`SELECT ` + entryColumns + ` FROM entries e WHERE e.user_id = ?`)
	if filter.Category != "" {
		sb.WriteString(` AND e.main_category = ?`)
		args = append(args, string(filter.Category))
	}
	sb.WriteString(` ORDER BY e.created_at DESC, e.entry_id DESC`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.Entry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.Entry, error) {
	var (
		entry          model.Entry
		userID         int64
		mainCategory   string
		secondary      sql.NullString
		sub            sql.NullString
		scores         sql.NullString
		subConfidence  sql.NullFloat64
		processingTime sql.NullFloat64
		errorMessage   sql.NullString
		tags           sql.NullString
	)

	err := row.Scan(
		&entry.ID, &userID, &entry.Text, &mainCategory,
		&secondary, &sub, &scores, &subConfidence,
		&processingTime, &entry.Success, &errorMessage, &entry.CreatedAt,
		&tags,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	entry.UserID = model.UserID(userID)
	entry.MainCategory = model.Category(mainCategory)
	entry.SecondaryCategory = model.Category(secondary.String)
	entry.SubCategory = sub.String
	entry.ErrorMessage = errorMessage.String
	if subConfidence.Valid {
		v := subConfidence.Float64
		entry.SubConfidence = &v
	}
	if processingTime.Valid {
		entry.ProcessingTime = time.Duration(processingTime.Float64 * float64(time.Second))
	}

	entry.ConfidenceScores = map[string]float64{}
	if scores.Valid && scores.String != "" {
		if err := json.Unmarshal([]byte(scores.String), &entry.ConfidenceScores); err != nil {
			return nil, fmt.Errorf("failed to decode confidence scores for entry %d: %w", entry.ID, err)
		}
	}

	entry.Tags = []string{}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &entry.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for entry %d: %w", entry.ID, err)
		}
	}

	return &entry, nil
}

func marshalScores(scores map[string]float64) (string, error) {
	if scores == nil {
		scores = map[string]float64{}
	}
	data, err := json.Marshal(scores)
	if err != nil {
		return "", fmt.Errorf("failed to encode confidence scores: %w", err)
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func requireAffected(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s update: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, common.ErrNotFound)
	}
	return nil
}
