package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver (cgo)
	_ "modernc.org/sqlite"          // SQLite driver (pure Go)
)

// Supported database/sql driver names.
const (
	DriverCGo    = "sqlite3"
	DriverPureGo = "sqlite"
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	driver string
}

// NewSQLiteStorage creates a new SQLite storage instance using the cgo driver.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	return NewSQLiteStorageWithDriver(DriverCGo, dbPath)
}

// NewSQLiteStorageWithDriver opens dbPath with the named driver
// (DriverCGo or DriverPureGo).
func NewSQLiteStorageWithDriver(driver, dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dsn, err := buildDSN(driver, dbPath)
	if err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes every statement, which is all the
	// concurrency control the journal needs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Goal links are deliberately left behind when an entry is deleted,
	// so references are declared in the schema but not enforced.
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
		driver: driver,
	}, nil
}

func buildDSN(driver, dbPath string) (string, error) {
	switch driver {
	case DriverCGo:
		return dbPath + "?_journal_mode=WAL&_busy_timeout=5000", nil
	case DriverPureGo:
		return dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q (want %s or %s)", driver, DriverCGo, DriverPureGo)
	}
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Driver returns the database/sql driver in use.
func (s *SQLiteStorage) Driver() string {
	return s.driver
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) CreateUser(ctx context.Context, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}
	return createUser(ctx, t.tx, username)
}

func (t *sqliteTransaction) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getUser(ctx, t.tx, id)
}

func (t *sqliteTransaction) InsertEntry(ctx context.Context, entry *model.Entry) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateEntry(entry); err != nil {
		return 0, err
	}
	return insertEntry(ctx, t.tx, entry)
}

func (t *sqliteTransaction) InsertTags(ctx context.Context, entryID int64, tags []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(entryID, "entryID"); err != nil {
		return err
	}
	return insertTags(ctx, t.tx, entryID, tags)
}

func (t *sqliteTransaction) GetEntry(ctx context.Context, entryID int64) (*model.Entry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getEntry(ctx, t.tx, entryID)
}

func (t *sqliteTransaction) UpdateEntry(ctx context.Context, entry *model.Entry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	return updateEntry(ctx, t.tx, entry)
}

func (t *sqliteTransaction) DeleteEntry(ctx context.Context, entryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteEntry(ctx, t.tx, entryID)
}

func (t *sqliteTransaction) ListEntries(ctx context.Context, userID model.UserID, filter service.EntryFilter) ([]model.Entry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listEntries(ctx, t.tx, userID, filter)
}

func (t *sqliteTransaction) InsertGoal(ctx context.Context, userID model.UserID, draft model.GoalDraft) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateDraft(draft); err != nil {
		return 0, err
	}
	return insertGoal(ctx, t.tx, userID, draft)
}

func (t *sqliteTransaction) GetGoal(ctx context.Context, goalID int64) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getGoal(ctx, t.tx, goalID)
}

func (t *sqliteTransaction) UpdateGoal(ctx context.Context, goalID int64, text string, status model.GoalStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoalUpdate(text, status); err != nil {
		return err
	}
	return updateGoal(ctx, t.tx, goalID, text, status)
}

func (t *sqliteTransaction) ListGoals(ctx context.Context, userID model.UserID) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listGoals(ctx, t.tx, userID)
}

func (t *sqliteTransaction) SearchGoalsByText(ctx context.Context, userID model.UserID, tokens []string, limit int) ([]model.GoalMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return searchGoalsByText(ctx, t.tx, userID, tokens, limit)
}

func (t *sqliteTransaction) InsertGoalLink(ctx context.Context, goalID, entryID int64, linkType model.LinkType) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateLink(goalID, entryID, linkType); err != nil {
		return 0, err
	}
	return insertGoalLink(ctx, t.tx, goalID, entryID, linkType)
}

func (t *sqliteTransaction) ListGoalLinks(ctx context.Context, goalID int64) ([]model.GoalLink, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listLinks(ctx, t.tx, "goal_id", goalID)
}

func (t *sqliteTransaction) ListLinksForEntry(ctx context.Context, entryID int64) ([]model.GoalLink, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listLinks(ctx, t.tx, "entry_id", entryID)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) SchemaVersion(ctx context.Context) (int, error) {
	return schemaVersion(ctx, t.tx)
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
