package goals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/dear-diary/internal/model"
)

// Store is the persistence the reconciler writes through.
type Store interface {
	GoalSearcher
	InsertGoal(ctx context.Context, userID model.UserID, draft model.GoalDraft) (int64, error)
	UpdateGoal(ctx context.Context, goalID int64, text string, status model.GoalStatus) error
	InsertGoalLink(ctx context.Context, goalID, entryID int64, linkType model.LinkType) (int64, error)
}

// DraftExtractor proposes goals for an entry.
type DraftExtractor interface {
	Extract(text string, main model.Category, sub string) []model.GoalDraft
}

// Outcome summarizes what reconciling one entry changed.
type Outcome struct {
	Created    []int64
	Progressed []int64
	Completed  []int64
}

// Empty reports whether reconciliation changed nothing.
func (o Outcome) Empty() bool {
	return len(o.Created) == 0 && len(o.Progressed) == 0 && len(o.Completed) == 0
}

// Reconciler links a persisted entry to the goals it creates, advances or
// completes.
type Reconciler struct {
	store     Store
	extractor DraftExtractor
	matcher   *Matcher
	logger    *slog.Logger
}

// NewReconciler creates a reconciler. A nil extractor means the default
// decision table.
func NewReconciler(store Store, extractor DraftExtractor, logger *slog.Logger) *Reconciler {
	if extractor == nil {
		extractor = NewExtractor()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:     store,
		extractor: extractor,
		matcher:   NewMatcher(store),
		logger:    logger,
	}
}

// Reconcile runs two passes over an entry that is already stored.
//
// For each extracted draft, the entry text is matched against the user's
// goals: a hit gets a progress link on the newest match, a miss creates the
// goal with a created link. Matching is redone for every draft and always
// uses the entry text, not the draft.
//
// For each completion signal, the newest matching goal is marked completed
// (its text is kept) and gets a completed link.
//
// Writes are not wrapped in a transaction; the first store error stops the
// run and is returned as is, leaving earlier writes in place.
func (r *Reconciler) Reconcile(ctx context.Context, userID model.UserID, entryID int64, text string, main model.Category, sub string) (Outcome, error) {
	var outcome Outcome

	for _, draft := range r.extractor.Extract(text, main, sub) {
		matches, err := r.matcher.FindSimilar(ctx, userID, text, DefaultMatchLimit)
		if err != nil {
			return outcome, err
		}

		if len(matches) > 0 {
			goalID := matches[0].ID
			if _, err := r.store.InsertGoalLink(ctx, goalID, entryID, model.LinkProgress); err != nil {
				return outcome, err
			}
			outcome.Progressed = append(outcome.Progressed, goalID)
			r.logger.Debug("Linked entry as goal progress", "goal_id", goalID, "entry_id", entryID)
			continue
		}

		goalID, err := r.store.InsertGoal(ctx, userID, draft)
		if err != nil {
			return outcome, err
		}
		if _, err := r.store.InsertGoalLink(ctx, goalID, entryID, model.LinkCreated); err != nil {
			return outcome, err
		}
		outcome.Created = append(outcome.Created, goalID)
		r.logger.Info("Created goal from entry",
			"goal_id", goalID,
			"entry_id", entryID,
			"sub_category", draft.SubCategory)
	}

	for _, signal := range DetectCompletions(text) {
		matches, err := r.matcher.FindSimilar(ctx, userID, text, DefaultMatchLimit)
		if err != nil {
			return outcome, err
		}
		if len(matches) == 0 {
			r.logger.Debug("Completion signal without matching goal", "signal", signal, "entry_id", entryID)
			continue
		}

		top := matches[0]
		if err := r.store.UpdateGoal(ctx, top.ID, top.Text, model.GoalCompleted); err != nil {
			return outcome, err
		}
		if _, err := r.store.InsertGoalLink(ctx, top.ID, entryID, model.LinkCompleted); err != nil {
			return outcome, err
		}
		outcome.Completed = append(outcome.Completed, top.ID)
		r.logger.Info("Marked goal completed", "goal_id", top.ID, "entry_id", entryID, "signal", signal)
	}

	return outcome, nil
}

// String renders the outcome for logs.
func (o Outcome) String() string {
	return fmt.Sprintf("created=%v progressed=%v completed=%v", o.Created, o.Progressed, o.Completed)
}
