package sheets

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/dear-diary/internal/model"
)

// Tab names in the exported spreadsheet.
const (
	GoalsTab   = "Goals"
	EntriesTab = "Entries"
)

// GoalRow is one row of the Goals tab.
type GoalRow struct {
	Created     time.Time
	Updated     time.Time
	Due         *time.Time
	Target      decimal.NullDecimal
	Current     decimal.Decimal
	Text        string
	Status      string
	SubCategory string
	ID          int64
	Links       int
}

// Progress returns current/target as a percentage rounded to one decimal,
// and false when the goal has no positive target.
func (r GoalRow) Progress() (decimal.Decimal, bool) {
	if !r.Target.Valid || !r.Target.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	return r.Current.Div(r.Target.Decimal).Mul(decimal.NewFromInt(100)).Round(1), true
}

// EntryRow is one row of the Entries tab.
type EntryRow struct {
	Date       time.Time
	Main       string
	Secondary  string
	Sub        string
	Tags       string
	Text       string
	Error      string
	Confidence float64
	ID         int64
	Success    bool
}

// Report is everything one export writes.
type Report struct {
	GeneratedAt time.Time
	Goals       []GoalRow
	Entries     []EntryRow
}

// Completed counts goals in the completed status.
func (r *Report) Completed() int {
	n := 0
	for _, g := range r.Goals {
		if g.Status == string(model.GoalCompleted) {
			n++
		}
	}
	return n
}

// BuildReport turns stored goals and entries into report rows. linkCounts
// maps goal id to its number of linked entries. Goals keep their given
// order; entries are sorted newest first.
func BuildReport(goals []model.Goal, entries []model.Entry, linkCounts map[int64]int, now time.Time) *Report {
	report := &Report{
		GeneratedAt: now,
		Goals:       make([]GoalRow, 0, len(goals)),
		Entries:     make([]EntryRow, 0, len(entries)),
	}

	for _, g := range goals {
		row := GoalRow{
			ID:          g.ID,
			Text:        g.Text,
			Status:      string(g.Status),
			SubCategory: g.SubCategory,
			Current:     decimal.NewFromFloat(g.CurrentAmount),
			Due:         g.DueDate,
			Links:       linkCounts[g.ID],
			Created:     g.CreatedAt,
			Updated:     g.UpdatedAt,
		}
		if g.TargetAmount != nil {
			row.Target = decimal.NewNullDecimal(decimal.NewFromFloat(*g.TargetAmount))
		}
		report.Goals = append(report.Goals, row)
	}

	for _, e := range entries {
		report.Entries = append(report.Entries, EntryRow{
			ID:         e.ID,
			Date:       e.CreatedAt,
			Main:       string(e.MainCategory),
			Secondary:  string(e.SecondaryCategory),
			Sub:        e.SubCategory,
			Confidence: e.ConfidenceScores[string(e.MainCategory)],
			Tags:       strings.Join(e.Tags, ", "),
			Text:       e.Text,
			Success:    e.Success,
			Error:      e.ErrorMessage,
		})
	}
	sort.SliceStable(report.Entries, func(i, j int) bool {
		return report.Entries[i].Date.After(report.Entries[j].Date)
	})

	return report
}

var (
	goalHeader  = []any{"ID", "Goal", "Status", "Sub-category", "Target", "Current", "Progress %", "Due", "Entries", "Created", "Updated"}
	entryHeader = []any{"Date", "Main", "Secondary", "Sub-category", "Confidence", "Tags", "Classified", "Entry", "Error"}
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// goalValues renders the Goals tab: a title row, a blank row, the header
// and one row per goal.
func goalValues(r *Report) [][]any {
	values := make([][]any, 0, len(r.Goals)+3)
	values = append(values,
		[]any{"Goals", r.GeneratedAt.Format(dateTimeLayout), "Completed", r.Completed(), "Total", len(r.Goals)},
		[]any{},
		goalHeader,
	)

	for _, g := range r.Goals {
		target, progress := "", ""
		if g.Target.Valid {
			target = g.Target.Decimal.StringFixed(2)
		}
		if pct, ok := g.Progress(); ok {
			progress = pct.String()
		}
		due := ""
		if g.Due != nil {
			due = g.Due.Format(dateLayout)
		}

		values = append(values, []any{
			g.ID,
			g.Text,
			g.Status,
			g.SubCategory,
			target,
			g.Current.StringFixed(2),
			progress,
			due,
			g.Links,
			g.Created.Format(dateTimeLayout),
			g.Updated.Format(dateTimeLayout),
		})
	}
	return values
}

// entryValues renders the Entries tab: header then one row per entry.
func entryValues(r *Report) [][]any {
	values := make([][]any, 0, len(r.Entries)+1)
	values = append(values, entryHeader)

	for _, e := range r.Entries {
		classified := "yes"
		if !e.Success {
			classified = "no"
		}
		values = append(values, []any{
			e.Date.Format(dateTimeLayout),
			e.Main,
			e.Secondary,
			e.Sub,
			decimal.NewFromFloat(e.Confidence).StringFixed(3),
			e.Tags,
			classified,
			e.Text,
			e.Error,
		})
	}
	return values
}
