package model

import (
	"fmt"
	"math"
	"sort"
)

// LabelScore is one candidate label and how strongly the text supports it.
type LabelScore struct {
	Label string
	Score float64
}

// Validate ensures the LabelScore has valid data.
func (s LabelScore) Validate() error {
	if s.Label == "" {
		return fmt.Errorf("label is required")
	}
	if s.Score < 0.0 || s.Score > 1.0 || math.IsNaN(s.Score) {
		return fmt.Errorf("score must be between 0.0 and 1.0, got %.2f", s.Score)
	}
	return nil
}

// LabelScores is a ranked list of labels, highest score first once sorted.
type LabelScores []LabelScore

// Len implements sort.Interface.
func (r LabelScores) Len() int { return len(r) }

// Less implements sort.Interface. Higher scores first, ties by label.
func (r LabelScores) Less(i, j int) bool {
	if r[i].Score != r[j].Score {
		return r[i].Score > r[j].Score
	}
	return r[i].Label < r[j].Label
}

// Swap implements sort.Interface.
func (r LabelScores) Swap(i, j int) { r[i], r[j] = r[j], r[i] }

// Sort sorts the scores in descending order.
func (r LabelScores) Sort() { sort.Stable(r) }

// Top returns the highest-scoring label, or nil if empty.
func (r LabelScores) Top() *LabelScore {
	if len(r) == 0 {
		return nil
	}
	r.Sort()
	return &r[0]
}

// TopN returns a copy of the N highest-scoring labels.
func (r LabelScores) TopN(n int) LabelScores {
	if n <= 0 {
		return LabelScores{}
	}

	r.Sort()

	if n > len(r) {
		n = len(r)
	}

	result := make(LabelScores, n)
	copy(result, r[:n])
	return result
}

// Validate ensures every score is in range and labels are unique.
func (r LabelScores) Validate() error {
	seen := make(map[string]bool, len(r))

	for i, s := range r {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid score at index %d: %w", i, err)
		}
		if seen[s.Label] {
			return fmt.Errorf("duplicate label %q in scores", s.Label)
		}
		seen[s.Label] = true
	}

	return nil
}
