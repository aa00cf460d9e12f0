package models

import (
	"fmt"
	"strings"
)

// ClassificationResult is the label and confidence returned for one submission.
type ClassificationResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Percent renders the confidence the way the results page shows it, e.g. "93.00%".
func (r ClassificationResult) Percent() string {
	return fmt.Sprintf("%.2f%%", r.Confidence*100)
}

// RecommendationResult holds causes and treatments, one entry per line of the
// source text, in order.
type RecommendationResult struct {
	Causes     []string `json:"causes"`
	Treatments []string `json:"treatments"`
}

// ParseRecommendation splits both blocks on newline. Lines are kept as-is,
// including empty ones; an empty block yields an empty slice.
func ParseRecommendation(causes, treatments string) RecommendationResult {
	return RecommendationResult{
		Causes:     splitLines(causes),
		Treatments: splitLines(treatments),
	}
}

func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
