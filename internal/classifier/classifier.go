// Package classifier turns diary text into a main category, an optional
// secondary category and an optional sub-category using a zero-shot
// pipeline and the category taxonomy.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/zeroshot"
)

// Validation errors.
var (
	ErrEmptyEntry   = errors.New("Entry cannot be empty") //nolint:revive,stylecheck // shown to users verbatim
	ErrEntryTooLong = errors.New("Entry too long")        //nolint:revive,stylecheck // shown to users verbatim
)

// Config holds the acceptance thresholds. Both thresholds are inclusive.
type Config struct {
	MinSecondaryConfidence float64
	MinSubConfidence       float64
	MaxEntryLength         int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinSecondaryConfidence: 0.25,
		MinSubConfidence:       0.35,
		MaxEntryLength:         5000,
	}
}

// Classifier classifies single entries. It is safe for concurrent use if
// the pipeline is.
type Classifier struct {
	pipeline zeroshot.Pipeline
	taxonomy *model.Taxonomy
	logger   *slog.Logger
	cfg      Config
}

// New creates a classifier. A nil taxonomy means the built-in one.
func New(pipeline zeroshot.Pipeline, taxonomy *model.Taxonomy, cfg Config, logger *slog.Logger) *Classifier {
	if taxonomy == nil {
		taxonomy = model.DefaultTaxonomy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxEntryLength <= 0 {
		cfg.MaxEntryLength = DefaultConfig().MaxEntryLength
	}
	return &Classifier{
		pipeline: pipeline,
		taxonomy: taxonomy,
		cfg:      cfg,
		logger:   logger,
	}
}

// Taxonomy returns the category table in use.
func (c *Classifier) Taxonomy() *model.Taxonomy {
	return c.taxonomy
}

// Validate checks an entry before any classification work. The returned
// error text is suitable for the result's error message.
func (c *Classifier) Validate(entry string) error {
	if strings.TrimSpace(entry) == "" {
		return ErrEmptyEntry
	}
	if utf8.RuneCountInString(entry) > c.cfg.MaxEntryLength {
		return fmt.Errorf("%w (>%d chars)", ErrEntryTooLong, c.cfg.MaxEntryLength)
	}
	return nil
}

// Classify never returns an error: every failure is reported through the
// result with MainCategory Unknown and Success false.
func (c *Classifier) Classify(ctx context.Context, entry string) model.ClassificationResult {
	start := time.Now()

	if err := c.Validate(entry); err != nil {
		c.logger.Debug("Rejected entry", "error", err)
		return model.FailedClassification(entry, err.Error(), time.Since(start))
	}

	result, err := c.classify(ctx, entry)
	if err != nil {
		c.logger.Warn("Classification failed",
			"error", fmt.Errorf("%w: %w", common.ErrClassificationFailed, err))
		return model.FailedClassification(entry, err.Error(), time.Since(start))
	}

	result.ProcessingTime = time.Since(start)
	c.logger.Debug("Classified entry",
		"main", result.MainCategory,
		"secondary", result.SecondaryCategory,
		"sub", result.SubCategory,
		"elapsed", result.ProcessingTime)
	return result
}

func (c *Classifier) classify(ctx context.Context, entry string) (result model.ClassificationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	text := strings.TrimSpace(entry)

	scores, err := c.pipeline.Classify(ctx, text, c.taxonomy.Descriptions())
	if err != nil {
		return result, err
	}
	if len(scores) == 0 {
		return result, errors.New("pipeline returned no labels")
	}

	top := scores.TopN(2)
	result = model.ClassificationResult{
		Entry:            entry,
		MainCategory:     c.taxonomy.CategoryForDescription(top[0].Label),
		ConfidenceScores: make(map[string]float64, len(top)),
		Success:          true,
	}
	for _, s := range top {
		result.ConfidenceScores[string(c.taxonomy.CategoryForDescription(s.Label))] = round3(s.Score)
	}
	if len(top) > 1 && top[1].Score >= c.cfg.MinSecondaryConfidence {
		result.SecondaryCategory = c.taxonomy.CategoryForDescription(top[1].Label)
	}

	subs := c.taxonomy.SubCategories(result.MainCategory)
	if len(subs) == 0 {
		return result, nil
	}

	subScores, err := c.pipeline.Classify(ctx, text, subs)
	if err != nil {
		return result, err
	}
	if best := subScores.Top(); best != nil && best.Score >= c.cfg.MinSubConfidence {
		result.SubCategory = best.Label
		conf := best.Score
		result.SubConfidence = &conf
	}
	return result, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
