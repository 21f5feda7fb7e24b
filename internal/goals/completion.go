package goals

import "regexp"

// CompletionPattern is a named regular expression that signals a goal was
// reached.
type CompletionPattern struct {
	re *regexp.Regexp
	ID string
}

// Completion pattern identifiers, in evaluation order.
const (
	CompletionFinished = "finished"
	CompletionSaved    = "saved"
	CompletionGoalDone = "goal_done"
)

var completionPatterns = []CompletionPattern{
	{ID: CompletionFinished, re: regexp.MustCompile(`\bi (finally )?(finished|completed|achieved|reached|hit|nailed)\b`)},
	{ID: CompletionSaved, re: regexp.MustCompile(`\bi saved\b`)},
	{ID: CompletionGoalDone, re: regexp.MustCompile(`\bgoal (done|complete|achieved)\b`)},
}

// DetectCompletions returns the identifiers of every completion pattern
// found in text, in declaration order. Each pattern counts once.
func DetectCompletions(text string) []string {
	lowered := normalize(text)
	var hits []string
	for _, p := range completionPatterns {
		if p.re.MatchString(lowered) {
			hits = append(hits, p.ID)
		}
	}
	return hits
}
