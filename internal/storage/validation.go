// Package storage provides the SQLite persistence layer for the journal.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/dear-diary/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidID       = errors.New("identifier must be positive")
	ErrInvalidStatus   = errors.New("invalid goal status")
	ErrInvalidLinkType = errors.New("invalid goal link type")
	ErrInvalidEntry    = errors.New("invalid entry")
	ErrInvalidGoal     = errors.New("invalid goal")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

// validateEntry checks the fields every stored entry needs.
func validateEntry(entry *model.Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if entry.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidEntry)
	}
	if entry.Text == "" {
		return fmt.Errorf("%w: missing text", ErrInvalidEntry)
	}
	if entry.MainCategory == "" {
		return fmt.Errorf("%w: missing main category", ErrInvalidEntry)
	}
	return nil
}

func validateDraft(draft model.GoalDraft) error {
	if strings.TrimSpace(draft.Text) == "" {
		return fmt.Errorf("%w: missing text", ErrInvalidGoal)
	}
	if draft.Status != "" && !draft.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, draft.Status)
	}
	return nil
}

func validateGoalUpdate(text string, status model.GoalStatus) error {
	if err := validateString(text, "goal text"); err != nil {
		return err
	}
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

func validateLink(goalID, entryID int64, linkType model.LinkType) error {
	if err := validateID(goalID, "goalID"); err != nil {
		return err
	}
	if err := validateID(entryID, "entryID"); err != nil {
		return err
	}
	if !linkType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLinkType, linkType)
	}
	return nil
}
