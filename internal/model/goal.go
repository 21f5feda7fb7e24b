package model

import (
	"fmt"
	"time"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

// Goal statuses.
const (
	GoalPlanned    GoalStatus = "planned"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalDropped    GoalStatus = "dropped"
)

// GoalStatuses lists every valid status in lifecycle order.
func GoalStatuses() []GoalStatus {
	return []GoalStatus{GoalPlanned, GoalInProgress, GoalCompleted, GoalDropped}
}

// IsValid reports whether s is one of the known statuses.
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalPlanned, GoalInProgress, GoalCompleted, GoalDropped:
		return true
	}
	return false
}

// ParseGoalStatus converts user input into a GoalStatus.
func ParseGoalStatus(s string) (GoalStatus, error) {
	status := GoalStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown goal status %q (want one of %v)", s, GoalStatuses())
	}
	return status, nil
}

// LinkType records why an entry is linked to a goal.
type LinkType string

// Link types.
const (
	LinkReference LinkType = "reference"
	LinkCreated   LinkType = "created"
	LinkProgress  LinkType = "progress"
	LinkCompleted LinkType = "completed"
)

// IsValid reports whether t is one of the known link types.
func (t LinkType) IsValid() bool {
	switch t {
	case LinkReference, LinkCreated, LinkProgress, LinkCompleted:
		return true
	}
	return false
}

// Goal is a tracked aspiration.
type Goal struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	TargetAmount  *float64
	DueDate       *time.Time
	Text          string
	Category      string
	SubCategory   string
	Status        GoalStatus
	Notes         string
	ID            int64
	UserID        UserID
	CurrentAmount float64
}

// GoalDraft is a candidate goal that has not been persisted.
type GoalDraft struct {
	TargetAmount *float64
	DueDate      *time.Time
	Text         string
	Category     string
	SubCategory  string
	Status       GoalStatus
	Notes        string
}

// GoalMatch is a stored goal found by lexical overlap.
type GoalMatch struct {
	Text string
	ID   int64
}

// GoalLink associates an entry with a goal.
type GoalLink struct {
	CreatedAt time.Time
	LinkType  LinkType
	ID        int64
	GoalID    int64
	EntryID   int64
}
