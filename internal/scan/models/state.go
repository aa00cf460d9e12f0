package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/eyescan/internal/scan/domain"
)

// SubmissionState is the single live state of a scan submission. A new
// submission replaces it wholesale.
type SubmissionState struct {
	ScanID    uuid.UUID              `json:"scan_id,omitempty"`
	Phase     domain.SubmissionPhase `json:"phase"`
	Result    *ClassificationResult  `json:"result,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Kind      ErrorKind              `json:"kind,omitempty"`
	StartedAt time.Time              `json:"started_at,omitempty"`
	SettledAt time.Time              `json:"settled_at,omitempty"`
}

// Label returns the diagnosis label, or "" unless the submission succeeded.
func (s SubmissionState) Label() string {
	if s.Phase != domain.Succeeded || s.Result == nil {
		return ""
	}
	return s.Result.Label
}

// RecommendationKey identifies the inputs a recommendation was derived from.
type RecommendationKey struct {
	Label    string `json:"label"`
	History  string `json:"history"`
	Language string `json:"language"`
}

// RecommendationState is the recommendation derived for Key.
type RecommendationState struct {
	Key    RecommendationKey          `json:"key"`
	Phase  domain.RecommendationPhase `json:"phase"`
	Result *RecommendationResult      `json:"result,omitempty"`
	Reason string                     `json:"reason,omitempty"`
	Kind   ErrorKind                  `json:"kind,omitempty"`
}

// Selection describes the file currently chosen for a session, without its bytes.
type Selection struct {
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}
