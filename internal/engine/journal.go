// Package engine implements the journal submission pipeline: classify an
// entry, persist it with its tags, then reconcile it against the user's goals.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/dear-diary/internal/classifier"
	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/goals"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"
)

// Classifier is the classification contract the journal needs.
type Classifier interface {
	Validate(entry string) error
	Classify(ctx context.Context, entry string) model.ClassificationResult
}

// Journal orchestrates entry submission and goal management for users.
type Journal struct {
	storage    service.Storage
	classifier Classifier
	extractor  goals.DraftExtractor
	logger     *slog.Logger
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the journal's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithExtractor replaces the default goal decision table.
func WithExtractor(extractor goals.DraftExtractor) Option {
	return func(j *Journal) {
		if extractor != nil {
			j.extractor = extractor
		}
	}
}

// New creates a journal over the given store and classifier.
func New(storage service.Storage, c Classifier, opts ...Option) *Journal {
	j := &Journal{
		storage:    storage,
		classifier: c,
		extractor:  goals.NewExtractor(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Preview classifies text without persisting anything.
func (j *Journal) Preview(ctx context.Context, text string) model.ClassificationResult {
	return j.classifier.Classify(ctx, text)
}

// Submit classifies an entry, stores it with its tags and reconciles it
// against the user's goals. It is Classify followed by Record.
func (j *Journal) Submit(ctx context.Context, userID model.UserID, text string) (*model.Entry, goals.Outcome, error) {
	result, err := j.Classify(ctx, text)
	if err != nil {
		return nil, goals.Outcome{}, err
	}
	return j.Record(ctx, userID, result)
}

// Classify runs the classifier for a submission without touching the store.
// Only blank text is rejected, with a UserError. Every other problem,
// oversized text included, comes back as a failed result that Record still
// stores.
func (j *Journal) Classify(ctx context.Context, text string) (model.ClassificationResult, error) {
	if err := j.classifier.Validate(text); errors.Is(err, classifier.ErrEmptyEntry) {
		return model.ClassificationResult{}, common.NewUserError("entry rejected", err)
	}
	return j.classifier.Classify(ctx, text), nil
}

// Record stores a classified entry and reconciles it against the user's
// goals. A failed classification is stored as an Unknown entry and still
// reconciled.
//
// The entry and its tags are written in one transaction; goal mutations are
// committed one by one afterwards, so a reconciliation error leaves the
// entry in place and is returned together with it.
func (j *Journal) Record(ctx context.Context, userID model.UserID, result model.ClassificationResult) (*model.Entry, goals.Outcome, error) {
	logger := j.logger.With("submission_id", uuid.NewString(), "user_id", userID)
	if strings.TrimSpace(result.Entry) == "" {
		return nil, goals.Outcome{}, common.NewUserError("entry rejected", classifier.ErrEmptyEntry)
	}

	start := time.Now()
	if !result.Success {
		logger.Warn("Entry classification failed, storing as unknown",
			"error", result.ErrorMessage,
			"duration", result.ProcessingTime)
	} else {
		logger.Debug("Entry classified",
			"main", result.MainCategory,
			"secondary", result.SecondaryCategory,
			"sub", result.SubCategory,
			"duration", result.ProcessingTime)
	}

	entry := model.NewEntry(userID, result)
	if err := j.saveEntry(ctx, entry); err != nil {
		return nil, goals.Outcome{}, err
	}
	logger = logger.With("entry_id", entry.ID)
	logger.Info("Entry saved", "main", entry.MainCategory, "tags", entry.Tags)

	reconciler := goals.NewReconciler(j.storage, j.extractor, logger)
	outcome, err := reconciler.Reconcile(ctx, userID, entry.ID, entry.Text, entry.MainCategory, entry.SubCategory)
	if err != nil {
		return entry, outcome, fmt.Errorf("failed to reconcile goals for entry %d: %w", entry.ID, err)
	}

	if !outcome.Empty() {
		logger.Info("Goals reconciled",
			"created", len(outcome.Created),
			"progressed", len(outcome.Progressed),
			"completed", len(outcome.Completed))
	}
	logger.Debug("Submission finished", "elapsed", time.Since(start))

	return entry, outcome, nil
}

func (j *Journal) saveEntry(ctx context.Context, entry *model.Entry) error {
	tx, err := j.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := tx.InsertEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	tags := entry.DerivedTags()
	if err := tx.InsertTags(ctx, id, tags); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}

	entry.ID = id
	entry.Tags = tags
	return nil
}

// GetEntry returns one of the user's entries.
func (j *Journal) GetEntry(ctx context.Context, userID model.UserID, entryID int64) (*model.Entry, error) {
	entry, err := j.storage.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, fmt.Errorf("entry %d: %w", entryID, common.ErrNotFound)
	}
	return entry, nil
}

// ListEntries returns the user's entries, newest first.
func (j *Journal) ListEntries(ctx context.Context, userID model.UserID, filter service.EntryFilter) ([]model.Entry, error) {
	return j.storage.ListEntries(ctx, userID, filter)
}

// DeleteEntry removes one of the user's entries and its tags. Goal links
// pointing at the entry are left in place.
func (j *Journal) DeleteEntry(ctx context.Context, userID model.UserID, entryID int64) error {
	if _, err := j.GetEntry(ctx, userID, entryID); err != nil {
		return err
	}
	if err := j.storage.DeleteEntry(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", entryID, err)
	}
	j.logger.Info("Entry deleted", "entry_id", entryID, "user_id", userID)
	return nil
}

// IsUserError reports whether err carries a message meant for the person
// using the journal.
func IsUserError(err error) bool {
	var ue *common.UserError
	return errors.As(err, &ue)
}

var _ Classifier = (*classifier.Classifier)(nil)
