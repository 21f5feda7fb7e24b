package zeroshot

import (
	"context"
	"strings"
	"unicode"

	"github.com/Veraticus/dear-diary/internal/model"
)

// keywordSmoothing keeps every label above zero so rankings stay total.
const keywordSmoothing = 0.1

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "about": true,
	"this": true, "that": true, "are": true, "was": true, "from": true,
	"into": true, "being": true, "near": true, "including": true,
}

// KeywordPipeline scores a label by how many of its words (or their
// five-letter stems) appear in the text. It needs no model and always
// gives the same answer for the same input.
type KeywordPipeline struct{}

// NewKeywordPipeline returns the offline scorer.
func NewKeywordPipeline() *KeywordPipeline {
	return &KeywordPipeline{}
}

// Classify implements Pipeline.
func (k *KeywordPipeline) Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := wordSet(text)
	out := make(model.LabelScores, len(labels))
	var sum float64
	for i, label := range labels {
		score := keywordSmoothing
		for _, w := range tokenize(label) {
			if words[w] || words[stem(w)] {
				score++
			}
		}
		out[i] = model.LabelScore{Label: label, Score: score}
		sum += score
	}
	for i := range out {
		out[i].Score /= sum
	}
	out.Sort()
	return out, nil
}

// wordSet indexes both the words of text and their stems.
func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range tokenize(text) {
		set[w] = true
		set[stem(w)] = true
	}
	return set
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 && !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

func stem(w string) string {
	if len(w) > 5 {
		return w[:5]
	}
	return w
}
