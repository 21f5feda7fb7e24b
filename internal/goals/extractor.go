// Package goals derives goal activity from diary entries: candidate goals,
// completion signals, lexical matching against stored goals, and the
// reconciliation that turns those into goal and link mutations.
package goals

import (
	"strings"

	"github.com/Veraticus/dear-diary/internal/model"
)

// GoalCategory is the category recorded on every extracted goal.
const GoalCategory = "Goals"

// DefaultGatePhrases mark an entry as goal-like regardless of its category.
var DefaultGatePhrases = []string{"i want to", "my goal is", "i plan to", "i will", "i'm going to"}

// Rule is one row of the extraction decision table. A rule with no
// keywords always matches. An empty SubCategory keeps the entry's own
// sub-category.
type Rule struct {
	Name        string
	SubCategory string
	Keywords    []string
	ParseAmount bool
}

// Matches reports whether lowered text contains any of the rule's keywords.
func (r Rule) Matches(lowered string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// DefaultRules returns the decision table in priority order. The first
// matching rule produces the only draft.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "money",
			Keywords:    []string{"save", "savings", "emergency fund", "budget"},
			SubCategory: "Savings/Finance",
			ParseAmount: true,
		},
		{
			Name:        "learning",
			Keywords:    []string{"learn", "course", "study", "class", "certificate"},
			SubCategory: "Education/Learning",
		},
		{
			Name:        "fitness",
			Keywords:    []string{"run", "gym", "workout", "exercise", "marathon", "steps"},
			SubCategory: "Health/Fitness",
		},
		{
			Name:        "habit",
			Keywords:    []string{"every day", "daily", "habit", "consistency", "routine"},
			SubCategory: "Habit Building",
		},
		{
			Name: "fallback",
		},
	}
}

// Extractor turns entry text into goal drafts. It is pure and safe for
// concurrent use.
type Extractor struct {
	gates []string
	rules []Rule
}

// NewExtractor builds an extractor over the default gates and rules.
func NewExtractor() *Extractor {
	return NewExtractorWithRules(DefaultGatePhrases, DefaultRules())
}

// NewExtractorWithRules builds an extractor over custom gates and rules.
func NewExtractorWithRules(gates []string, rules []Rule) *Extractor {
	return &Extractor{gates: gates, rules: rules}
}

// Rules returns the decision table in evaluation order.
func (e *Extractor) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Extract returns at most one draft. Entries that are neither classified
// as Goals nor phrased as an intention yield none.
func (e *Extractor) Extract(text string, main model.Category, sub string) []model.GoalDraft {
	lowered := normalize(text)
	if !e.looksLikeGoal(lowered, main) {
		return nil
	}

	for _, rule := range e.rules {
		if !rule.Matches(lowered) {
			continue
		}

		draft := model.GoalDraft{
			Text:        strings.TrimSpace(text),
			Category:    GoalCategory,
			SubCategory: rule.SubCategory,
			Status:      model.GoalPlanned,
		}
		if draft.SubCategory == "" {
			draft.SubCategory = sub
		}
		if rule.ParseAmount {
			draft.TargetAmount = ParseAmount(lowered)
		}
		return []model.GoalDraft{draft}
	}
	return nil
}

func (e *Extractor) looksLikeGoal(lowered string, main model.Category) bool {
	if main == model.CategoryGoals {
		return true
	}
	for _, phrase := range e.gates {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// normalize lowercases text and folds typographic apostrophes so "I’m"
// matches the gate phrases.
func normalize(text string) string {
	return strings.ReplaceAll(strings.ToLower(text), "’", "'")
}
