package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/dear-diary/internal/goals"
	"github.com/Veraticus/dear-diary/internal/model"
)

const (
	timeLayout = "2006-01-02 15:04"
	dateLayout = "2006-01-02"
	// previewRunes is how much entry text a list row shows.
	previewRunes = 60
	// scoreRows is how many category scores a classification shows.
	scoreRows = 5
)

// FormatClassification renders a classification result for the terminal.
func FormatClassification(result model.ClassificationResult) string {
	if !result.Success {
		return FormatError("Classification failed: " + result.ErrorMessage)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%.3f)\n", BoldStyle.Render("Main:"),
		result.MainCategory, result.ConfidenceScores[string(result.MainCategory)])
	if result.SecondaryCategory != "" {
		fmt.Fprintf(&b, "%s %s (%.3f)\n", BoldStyle.Render("Secondary:"),
			result.SecondaryCategory, result.ConfidenceScores[string(result.SecondaryCategory)])
	}
	if result.SubCategory != "" {
		sub := result.SubCategory
		if result.SubConfidence != nil {
			sub = fmt.Sprintf("%s (%.3f)", sub, *result.SubConfidence)
		}
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Sub:"), sub)
	}
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Tags:"), strings.Join(result.Tags(), ", "))

	scores := make(model.LabelScores, 0, len(result.ConfidenceScores))
	for label, score := range result.ConfidenceScores {
		scores = append(scores, model.LabelScore{Label: label, Score: score})
	}
	for _, s := range scores.TopN(scoreRows) {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("  %-18s %.3f", s.Label, s.Score)))
		b.WriteString("\n")
	}
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("Took %s", result.ProcessingTime.Round(time.Millisecond))))
	return b.String()
}

// FormatOutcome summarizes which goals an entry touched.
func FormatOutcome(o goals.Outcome) string {
	if o.Empty() {
		return SubtleStyle.Render("No goal changes")
	}

	var lines []string
	if len(o.Created) > 0 {
		lines = append(lines, FormatSuccess(GoalIcon+" Created goal "+joinIDs(o.Created)))
	}
	if len(o.Progressed) > 0 {
		lines = append(lines, FormatInfo("Progress on goal "+joinIDs(o.Progressed)))
	}
	if len(o.Completed) > 0 {
		lines = append(lines, FormatSuccess("Completed goal "+joinIDs(o.Completed)))
	}
	return strings.Join(lines, "\n")
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ", ")
}

// EntryTable renders entries one per row, newest first as given.
func EntryTable(entries []model.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		category := string(e.MainCategory)
		if e.SubCategory != "" {
			category += " / " + e.SubCategory
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.ID),
			e.CreatedAt.Local().Format(timeLayout),
			category,
			Truncate(e.Text, previewRunes),
		})
	}
	return Table([]string{"ID", "Created", "Category", "Entry"}, rows)
}

// GoalTable renders goals with their status, target and due date.
func GoalTable(list []model.Goal) string {
	rows := make([][]string, 0, len(list))
	for _, g := range list {
		target := ""
		if g.TargetAmount != nil {
			target = fmt.Sprintf("%.2f", *g.TargetAmount)
		}
		due := ""
		if g.DueDate != nil {
			due = g.DueDate.Format(dateLayout)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", g.ID),
			StatusBadge(g.Status),
			g.SubCategory,
			target,
			due,
			Truncate(g.Text, previewRunes),
		})
	}
	return Table([]string{"ID", "Status", "Sub", "Target", "Due", "Goal"}, rows)
}

// LinkTable renders the history of one goal.
func LinkTable(links []model.GoalLink) string {
	rows := make([][]string, 0, len(links))
	for _, l := range links {
		rows = append(rows, []string{
			fmt.Sprintf("%d", l.EntryID),
			string(l.LinkType),
			l.CreatedAt.Local().Format(timeLayout),
		})
	}
	return Table([]string{"Entry", "Link", "When"}, rows)
}

// StatusBadge colors a goal status.
func StatusBadge(status model.GoalStatus) string {
	switch status {
	case model.GoalCompleted:
		return SuccessStyle.Render(string(status))
	case model.GoalInProgress:
		return InfoStyle.Render(string(status))
	case model.GoalDropped:
		return SubtleStyle.Render(string(status))
	default:
		return string(status)
	}
}

// Table lays out rows under a bold header, padding each column to its
// widest cell.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(cells))
		for i, cell := range cells {
			out[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, out...))
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, render(headers, TableHeaderStyle))
	for _, row := range rows {
		lines = append(lines, render(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
// Newlines are flattened so a row stays on one line.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n || n < 1 {
		return s
	}
	return string(runes[:n-1]) + "…"
}
