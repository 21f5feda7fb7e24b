package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/dear-diary/internal/classifier"
	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/engine"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/storage"
	"github.com/Veraticus/dear-diary/internal/zeroshot"
)

// app is everything a command needs to work with the journal.
type app struct {
	store    *storage.SQLiteStorage
	pipeline *zeroshot.Handle
	journal  *engine.Journal
	user     model.UserID
}

// Close releases the pipeline and the database.
func (a *app) Close() {
	if a.pipeline != nil {
		if err := a.pipeline.Close(); err != nil {
			slog.Warn("Failed to close pipeline", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
}

// initStorage opens the configured database and brings its schema up to
// date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorageWithDriver(appConfig.Database.Driver, appConfig.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newClassifier builds the classifier over a lazily loaded pipeline.
func newClassifier() (*classifier.Classifier, *zeroshot.Handle, error) {
	taxonomy, err := appConfig.Taxonomy()
	if err != nil {
		return nil, nil, err
	}

	loader, err := zeroshot.New(appConfig.ZeroShot())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	handle := zeroshot.NewHandle(loader, slog.Default())
	return classifier.New(handle, taxonomy, appConfig.ClassifierSettings(), slog.Default()), handle, nil
}

// initApp opens storage and wires the journal for the configured user.
func initApp(ctx context.Context) (*app, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	user := appConfig.User()
	if _, err := store.GetUser(ctx, user); err != nil {
		_ = store.Close()
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewUserError(fmt.Sprintf("user %d does not exist", user), err)
		}
		return nil, fmt.Errorf("failed to look up user %d: %w", user, err)
	}

	c, handle, err := newClassifier()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		store:    store,
		pipeline: handle,
		journal:  engine.New(store, c, engine.WithLogger(slog.Default())),
		user:     user,
	}, nil
}

// readText returns the joined arguments, or stdin when there are none or
// the only argument is "-".
func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// entryResult recovers the classification stored on an entry.
func entryResult(e *model.Entry) model.ClassificationResult {
	return model.ClassificationResult{
		Entry:             e.Text,
		MainCategory:      e.MainCategory,
		SecondaryCategory: e.SecondaryCategory,
		SubCategory:       e.SubCategory,
		ConfidenceScores:  e.ConfidenceScores,
		SubConfidence:     e.SubConfidence,
		ErrorMessage:      e.ErrorMessage,
		ProcessingTime:    e.ProcessingTime,
		Success:           e.Success,
	}
}
