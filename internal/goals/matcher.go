package goals

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/dear-diary/internal/model"
)

const (
	// DefaultMatchLimit caps the goals FindSimilar returns.
	DefaultMatchLimit = 5
	maxSearchTokens   = 5
	minTokenLength    = 4
)

// GoalSearcher is the store query the matcher needs.
type GoalSearcher interface {
	SearchGoalsByText(ctx context.Context, userID model.UserID, tokens []string, limit int) ([]model.GoalMatch, error)
}

// Matcher finds stored goals that share words with an entry.
type Matcher struct {
	store GoalSearcher
}

// NewMatcher creates a matcher over store.
func NewMatcher(store GoalSearcher) *Matcher {
	return &Matcher{store: store}
}

// Tokens returns the search terms for text: lowercased, whitespace-split
// words longer than three characters, at most five, in order.
func Tokens(text string) []string {
	var out []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(field) < minTokenLength {
			continue
		}
		out = append(out, field)
		if len(out) == maxSearchTokens {
			break
		}
	}
	return out
}

// FindSimilar returns the user's goals containing any token of text,
// newest goal first, at most limit of them. Text without usable tokens
// matches nothing.
func (m *Matcher) FindSimilar(ctx context.Context, userID model.UserID, text string, limit int) ([]model.GoalMatch, error) {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	return m.store.SearchGoalsByText(ctx, userID, tokens, limit)
}
