package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/dear-diary/internal/model"
)

// ImportSummary counts what a bulk import did.
type ImportSummary struct {
	Submitted       int
	Rejected        int
	Unclassified    int
	GoalsCreated    int
	GoalsProgressed int
	GoalsCompleted  int
}

// Import submits texts one after another. Blank texts are counted as
// rejected and skipped; oversized ones are stored unclassified. progress,
// if set, is called once per text. The first store error stops the import;
// the summary covers what was done before it.
func (j *Journal) Import(ctx context.Context, userID model.UserID, texts []string, progress func()) (ImportSummary, error) {
	var summary ImportSummary

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		entry, outcome, err := j.Submit(ctx, userID, text)
		if progress != nil {
			progress()
		}

		switch {
		case err != nil && entry == nil && IsUserError(err):
			summary.Rejected++
			j.logger.Debug("Skipped entry", "index", i, "error", err)
			continue
		case err != nil:
			return summary, fmt.Errorf("import stopped at entry %d: %w", i+1, err)
		}

		summary.Submitted++
		if !entry.Success {
			summary.Unclassified++
		}
		summary.GoalsCreated += len(outcome.Created)
		summary.GoalsProgressed += len(outcome.Progressed)
		summary.GoalsCompleted += len(outcome.Completed)
	}

	j.logger.Info("Import finished",
		"submitted", summary.Submitted,
		"rejected", summary.Rejected,
		"unclassified", summary.Unclassified)
	return summary, nil
}

// SplitEntries reads one entry per paragraph: runs of non-blank lines
// separated by blank lines. Lines inside a paragraph are joined with a
// single space.
func SplitEntries(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			entries = append(entries, strings.Join(current, " "))
			current = current[:0]
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	flush()

	return entries, nil
}
