package zeroshot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/dear-diary/internal/model"
)

// Pipeline ranks candidate labels for a text. Scores are in [0,1] and the
// result is sorted highest first.
type Pipeline interface {
	Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error)
}

// Backend names accepted by New.
const (
	BackendONNX    = "onnx"
	BackendLLM     = "llm"
	BackendKeyword = "keyword"
)

// DefaultHypothesisTemplate turns a label into an NLI hypothesis.
const DefaultHypothesisTemplate = "This example is {}."

// Config selects and configures a backend.
type Config struct {
	Backend            string
	HypothesisTemplate string
	ONNX               ONNXConfig
	LLM                LLMConfig
}

// ONNXConfig locates the exported NLI model.
type ONNXConfig struct {
	ModelPath       string
	TokenizerPath   string
	LibraryPath     string
	MaxTokens       int
	// EntailmentIndex is the entailment position in the model's
	// three-way logits. Nil means the MNLI order (index 2).
	EntailmentIndex *int
}

// LLMConfig points at an OpenAI-compatible chat completions API.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	CacheTTL    time.Duration
	MaxAttempts int
}

// New returns a Loader for the configured backend. Nothing heavy happens
// until the loader runs.
func New(cfg Config) (Loader, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendONNX:
		return func(ctx context.Context) (Pipeline, error) {
			return newONNXPipeline(ctx, cfg.ONNX, cfg.HypothesisTemplate)
		}, nil
	case BackendLLM:
		return func(_ context.Context) (Pipeline, error) {
			return newLLMPipeline(cfg.LLM)
		}, nil
	case BackendKeyword, "":
		return func(_ context.Context) (Pipeline, error) {
			return NewKeywordPipeline(), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported zero-shot backend: %s", cfg.Backend)
	}
}

// FuncPipeline adapts a function to Pipeline.
type FuncPipeline func(ctx context.Context, text string, labels []string) (model.LabelScores, error)

// Classify implements Pipeline.
func (f FuncPipeline) Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error) {
	return f(ctx, text, labels)
}

// StaticPipeline answers every call from a fixed label→score table.
// Labels missing from the table score zero. It records how often it was
// called, which tests use to check that invalid input never reaches it.
type StaticPipeline struct {
	Scores map[string]float64
	mu     sync.Mutex
	calls  [][]string
}

// NewStaticPipeline creates a StaticPipeline over scores.
func NewStaticPipeline(scores map[string]float64) *StaticPipeline {
	return &StaticPipeline{Scores: scores}
}

// Classify implements Pipeline.
func (p *StaticPipeline) Classify(_ context.Context, _ string, labels []string) (model.LabelScores, error) {
	p.mu.Lock()
	recorded := make([]string, len(labels))
	copy(recorded, labels)
	p.calls = append(p.calls, recorded)
	p.mu.Unlock()

	out := make(model.LabelScores, 0, len(labels))
	for _, label := range labels {
		out = append(out, model.LabelScore{Label: label, Score: p.Scores[label]})
	}
	out.Sort()
	return out, nil
}

// Calls returns the label sets the pipeline was asked about, in order.
func (p *StaticPipeline) Calls() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]string, len(p.calls))
	copy(out, p.calls)
	return out
}

func hypothesis(template, label string) string {
	if template == "" {
		template = DefaultHypothesisTemplate
	}
	return strings.ReplaceAll(template, "{}", label)
}
