package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/dear-diary/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial journal schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS users (
					user_id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT UNIQUE NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS entries (
					entry_id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					entry_text TEXT NOT NULL,
					main_category TEXT NOT NULL,
					secondary_category TEXT,
					sub_category TEXT,
					confidence_scores TEXT,
					processing_time REAL,
					success INTEGER NOT NULL DEFAULT 1,
					error_message TEXT,
					created_at DATETIME NOT NULL,
					FOREIGN KEY (user_id) REFERENCES users(user_id)
				)`,
				`CREATE INDEX idx_entries_user_created ON entries(user_id, created_at)`,
				`CREATE INDEX idx_entries_main_category ON entries(main_category)`,

				`CREATE TABLE IF NOT EXISTS tags (
					tag_id INTEGER PRIMARY KEY AUTOINCREMENT,
					entry_id INTEGER NOT NULL,
					tag TEXT NOT NULL,
					FOREIGN KEY (entry_id) REFERENCES entries(entry_id)
				)`,
				`CREATE INDEX idx_tags_entry ON tags(entry_id)`,

				`CREATE TABLE IF NOT EXISTS goals (
					goal_id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					goal_text TEXT NOT NULL,
					category TEXT,
					sub_category TEXT,
					target_amount REAL,
					current_amount REAL NOT NULL DEFAULT 0,
					due_date TEXT,
					status TEXT NOT NULL DEFAULT 'planned'
						CHECK (status IN ('planned', 'in_progress', 'completed', 'dropped')),
					notes TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					FOREIGN KEY (user_id) REFERENCES users(user_id)
				)`,
				`CREATE INDEX idx_goals_user ON goals(user_id)`,

				`CREATE TABLE IF NOT EXISTS goal_links (
					link_id INTEGER PRIMARY KEY AUTOINCREMENT,
					goal_id INTEGER NOT NULL,
					entry_id INTEGER NOT NULL,
					link_type TEXT NOT NULL
						CHECK (link_type IN ('reference', 'created', 'progress', 'completed')),
					created_at DATETIME NOT NULL,
					FOREIGN KEY (goal_id) REFERENCES goals(goal_id),
					FOREIGN KEY (entry_id) REFERENCES entries(entry_id)
				)`,
				`CREATE INDEX idx_goal_links_goal ON goal_links(goal_id)`,
				`CREATE INDEX idx_goal_links_entry ON goal_links(entry_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default user",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(
				`INSERT OR IGNORE INTO users (user_id, username) VALUES (?, ?)`,
				int64(model.DefaultUserID), model.DefaultUsername,
			)
			if err != nil {
				return fmt.Errorf("failed to seed default user: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add sub-category confidence to entries",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE entries ADD COLUMN sub_confidence REAL`); err != nil {
				return fmt.Errorf("failed to add sub_confidence column: %w", err)
			}
			return nil
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion. It is safe to
// run repeatedly.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := schemaVersion(ctx, s.db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := schemaVersion(ctx, s.db)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return schemaVersion(ctx, s.db)
}

// Migrations returns the known migrations in order.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

func schemaVersion(ctx context.Context, q dbtx) (int, error) {
	var version int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
