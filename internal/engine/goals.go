package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/goals"
	"github.com/Veraticus/dear-diary/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GoalUpdate is a manual edit of a goal's text and status.
type GoalUpdate struct {
	Text   string           `validate:"required"`
	Status model.GoalStatus `validate:"required,oneof=planned in_progress completed dropped"`
}

// NewGoal is a manually created goal.
type NewGoal struct {
	TargetAmount *float64         `validate:"omitempty,gte=0"`
	Text         string           `validate:"required"`
	Status       model.GoalStatus `validate:"omitempty,oneof=planned in_progress completed dropped"`
	DueDate      *time.Time
	SubCategory  string
	Notes        string
}

// AddGoal creates a goal by hand. Missing status defaults to planned.
func (j *Journal) AddGoal(ctx context.Context, userID model.UserID, goal NewGoal) (*model.Goal, error) {
	goal.Text = strings.TrimSpace(goal.Text)
	if err := validate.Struct(goal); err != nil {
		return nil, invalidGoal(err)
	}
	if goal.Status == "" {
		goal.Status = model.GoalPlanned
	}

	id, err := j.storage.InsertGoal(ctx, userID, model.GoalDraft{
		Text:         goal.Text,
		Category:     goals.GoalCategory,
		SubCategory:  goal.SubCategory,
		TargetAmount: goal.TargetAmount,
		DueDate:      goal.DueDate,
		Status:       goal.Status,
		Notes:        goal.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	j.logger.Info("Goal added", "goal_id", id, "user_id", userID)
	return j.storage.GetGoal(ctx, id)
}

// UpdateGoal replaces the text and status of one of the user's goals.
func (j *Journal) UpdateGoal(ctx context.Context, userID model.UserID, goalID int64, update GoalUpdate) (*model.Goal, error) {
	update.Text = strings.TrimSpace(update.Text)
	if err := validate.Struct(update); err != nil {
		return nil, invalidGoal(err)
	}

	if _, err := j.GetGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	if err := j.storage.UpdateGoal(ctx, goalID, update.Text, update.Status); err != nil {
		return nil, fmt.Errorf("failed to update goal %d: %w", goalID, err)
	}

	j.logger.Info("Goal updated", "goal_id", goalID, "status", update.Status)
	return j.storage.GetGoal(ctx, goalID)
}

// GetGoal returns one of the user's goals.
func (j *Journal) GetGoal(ctx context.Context, userID model.UserID, goalID int64) (*model.Goal, error) {
	goal, err := j.storage.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, fmt.Errorf("goal %d: %w", goalID, common.ErrNotFound)
	}
	return goal, nil
}

// ListGoals returns the user's goals, newest first.
func (j *Journal) ListGoals(ctx context.Context, userID model.UserID) ([]model.Goal, error) {
	return j.storage.ListGoals(ctx, userID)
}

// GoalLinks returns the entry links of one of the user's goals in creation
// order.
func (j *Journal) GoalLinks(ctx context.Context, userID model.UserID, goalID int64) ([]model.GoalLink, error) {
	if _, err := j.GetGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	return j.storage.ListGoalLinks(ctx, goalID)
}

// invalidGoal turns validator output into a message naming the bad fields.
func invalidGoal(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return common.NewUserError(strings.Join(msgs, "; "), ErrInvalidGoal)
}

// ErrInvalidGoal marks a rejected goal create or update.
var ErrInvalidGoal = errors.New("invalid goal")
