package mcp

import (
	"time"

	"github.com/Veraticus/dear-diary/internal/model"
)

// entryView is the JSON shape of an entry returned to MCP clients.
type entryView struct {
	ConfidenceScores  map[string]float64 `json:"confidence_scores"`
	SubConfidence     *float64           `json:"sub_confidence,omitempty"`
	CreatedAt         string             `json:"created_at"`
	Text              string             `json:"text"`
	MainCategory      string             `json:"main_category"`
	SecondaryCategory string             `json:"secondary_category,omitempty"`
	SubCategory       string             `json:"sub_category,omitempty"`
	ErrorMessage      string             `json:"error_message,omitempty"`
	Tags              []string           `json:"tags"`
	ID                int64              `json:"id"`
	Success           bool               `json:"success"`
}

func newEntryView(e model.Entry) entryView {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return entryView{
		ID:                e.ID,
		Text:              e.Text,
		MainCategory:      string(e.MainCategory),
		SecondaryCategory: string(e.SecondaryCategory),
		SubCategory:       e.SubCategory,
		ConfidenceScores:  e.ConfidenceScores,
		SubConfidence:     e.SubConfidence,
		ErrorMessage:      e.ErrorMessage,
		Tags:              tags,
		Success:           e.Success,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
}

// goalView is the JSON shape of a goal.
type goalView struct {
	TargetAmount  *float64 `json:"target_amount,omitempty"`
	DueDate       string   `json:"due_date,omitempty"`
	Text          string   `json:"text"`
	Status        string   `json:"status"`
	SubCategory   string   `json:"sub_category,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	ID            int64    `json:"id"`
	CurrentAmount float64  `json:"current_amount"`
}

func newGoalView(g model.Goal) goalView {
	v := goalView{
		ID:            g.ID,
		Text:          g.Text,
		Status:        string(g.Status),
		SubCategory:   g.SubCategory,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Notes:         g.Notes,
		CreatedAt:     g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     g.UpdatedAt.Format(time.RFC3339),
	}
	if g.DueDate != nil {
		v.DueDate = g.DueDate.Format(dateLayout)
	}
	return v
}

type linkView struct {
	LinkType  string `json:"link_type"`
	CreatedAt string `json:"created_at"`
	EntryID   int64  `json:"entry_id"`
}

type outcomeView struct {
	Created    []int64 `json:"created"`
	Progressed []int64 `json:"progressed"`
	Completed  []int64 `json:"completed"`
}

type submitResponse struct {
	Warning string      `json:"warning,omitempty"`
	Goals   outcomeView `json:"goals"`
	Entry   entryView   `json:"entry"`
}
