package model

import "time"

// Entry is a persisted classification of one diary entry.
type Entry struct {
	CreatedAt         time.Time
	ConfidenceScores  map[string]float64
	SubConfidence     *float64
	MainCategory      Category
	SecondaryCategory Category
	SubCategory       string
	Text              string
	ErrorMessage      string
	Tags              []string
	ID                int64
	UserID            UserID
	ProcessingTime    time.Duration
	Success           bool
}

// NewEntry builds an unsaved Entry for a user from a classification result.
func NewEntry(userID UserID, result ClassificationResult) *Entry {
	scores := make(map[string]float64, len(result.ConfidenceScores))
	for k, v := range result.ConfidenceScores {
		scores[k] = v
	}

	return &Entry{
		UserID:            userID,
		Text:              result.Entry,
		MainCategory:      result.MainCategory,
		SecondaryCategory: result.SecondaryCategory,
		SubCategory:       result.SubCategory,
		ConfidenceScores:  scores,
		SubConfidence:     result.SubConfidence,
		ProcessingTime:    result.ProcessingTime,
		Success:           result.Success,
		ErrorMessage:      result.ErrorMessage,
	}
}

// DerivedTags returns the tag values the entry's categories project to.
func (e *Entry) DerivedTags() []string {
	return projectTags(e.MainCategory, e.SecondaryCategory, e.SubCategory)
}
