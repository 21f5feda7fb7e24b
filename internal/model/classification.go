// Package model defines the core domain models used throughout the application.
package model

import "time"

// ClassificationResult is the outcome of classifying one entry. It always
// carries a main category; failures use CategoryUnknown with Success false.
// Empty SecondaryCategory or SubCategory means the value was absent or
// fell below its confidence threshold.
type ClassificationResult struct {
	Entry             string             `json:"entry"`
	MainCategory      Category           `json:"main_category"`
	SecondaryCategory Category           `json:"secondary_category,omitempty"`
	SubCategory       string             `json:"sub_category,omitempty"`
	ConfidenceScores  map[string]float64 `json:"confidence_scores"`
	SubConfidence     *float64           `json:"sub_confidence,omitempty"`
	ErrorMessage      string             `json:"error_message,omitempty"`
	ProcessingTime    time.Duration      `json:"processing_time"`
	Success           bool               `json:"success"`
}

// FailedClassification builds the failure shape shared by validation and
// classifier errors.
func FailedClassification(entry, message string, elapsed time.Duration) ClassificationResult {
	return ClassificationResult{
		Entry:            entry,
		MainCategory:     CategoryUnknown,
		ConfidenceScores: map[string]float64{},
		ErrorMessage:     message,
		ProcessingTime:   elapsed,
		Success:          false,
	}
}

// Tags projects the categories of the result into tag values: main,
// then secondary and sub when present.
func (r ClassificationResult) Tags() []string {
	return projectTags(r.MainCategory, r.SecondaryCategory, r.SubCategory)
}

func projectTags(main, secondary Category, sub string) []string {
	tags := []string{string(main)}
	if secondary != "" {
		tags = append(tags, string(secondary))
	}
	if sub != "" {
		tags = append(tags, sub)
	}
	return tags
}
