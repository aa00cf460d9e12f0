package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/eyescan/internal/scan/domain"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// ScanClassified is emitted when a submission settles successfully.
type ScanClassified struct {
	eventID    uuid.UUID
	sessionID  uuid.UUID
	scanID     uuid.UUID
	result     ClassificationResult
	occurredAt time.Time
}

func NewScanClassified(sessionID, scanID uuid.UUID, result ClassificationResult) *ScanClassified {
	return &ScanClassified{
		eventID:    uuid.New(),
		sessionID:  sessionID,
		scanID:     scanID,
		result:     result,
		occurredAt: time.Now(),
	}
}

func (e *ScanClassified) EventID() uuid.UUID     { return e.eventID }
func (e *ScanClassified) EventType() string      { return "ScanClassified" }
func (e *ScanClassified) AggregateID() uuid.UUID { return e.sessionID }
func (e *ScanClassified) OccurredAt() time.Time  { return e.occurredAt }

func (e *ScanClassified) ScanID() uuid.UUID            { return e.scanID }
func (e *ScanClassified) Result() ClassificationResult { return e.result }

func (e *ScanClassified) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		EventType  string    `json:"event_type"`
		SessionID  uuid.UUID `json:"session_id"`
		ScanID     uuid.UUID `json:"scan_id"`
		Label      string    `json:"label"`
		Confidence float64   `json:"confidence"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		EventType:  e.EventType(),
		SessionID:  e.sessionID,
		ScanID:     e.scanID,
		Label:      e.result.Label,
		Confidence: e.result.Confidence,
		OccurredAt: e.occurredAt,
	})
}

// ScanFailed is emitted when a submission settles with a failure.
type ScanFailed struct {
	eventID    uuid.UUID
	sessionID  uuid.UUID
	scanID     uuid.UUID
	kind       ErrorKind
	reason     string
	occurredAt time.Time
}

func NewScanFailed(sessionID, scanID uuid.UUID, kind ErrorKind, reason string) *ScanFailed {
	return &ScanFailed{
		eventID:    uuid.New(),
		sessionID:  sessionID,
		scanID:     scanID,
		kind:       kind,
		reason:     reason,
		occurredAt: time.Now(),
	}
}

func (e *ScanFailed) EventID() uuid.UUID     { return e.eventID }
func (e *ScanFailed) EventType() string      { return "ScanFailed" }
func (e *ScanFailed) AggregateID() uuid.UUID { return e.sessionID }
func (e *ScanFailed) OccurredAt() time.Time  { return e.occurredAt }

func (e *ScanFailed) Kind() ErrorKind { return e.kind }

func (e *ScanFailed) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		EventType  string    `json:"event_type"`
		SessionID  uuid.UUID `json:"session_id"`
		ScanID     uuid.UUID `json:"scan_id"`
		Kind       ErrorKind `json:"kind"`
		Reason     string    `json:"reason"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		EventType:  e.EventType(),
		SessionID:  e.sessionID,
		ScanID:     e.scanID,
		Kind:       e.kind,
		Reason:     e.reason,
		OccurredAt: e.occurredAt,
	})
}

// RecommendationSettled is emitted when a recommendation fetch becomes Ready or Failed.
// The patient history is not part of the payload.
type RecommendationSettled struct {
	eventID    uuid.UUID
	sessionID  uuid.UUID
	label      string
	language   string
	phase      domain.RecommendationPhase
	reason     string
	occurredAt time.Time
}

func NewRecommendationSettled(sessionID uuid.UUID, st RecommendationState) *RecommendationSettled {
	return &RecommendationSettled{
		eventID:    uuid.New(),
		sessionID:  sessionID,
		label:      st.Key.Label,
		language:   st.Key.Language,
		phase:      st.Phase,
		reason:     st.Reason,
		occurredAt: time.Now(),
	}
}

func (e *RecommendationSettled) EventID() uuid.UUID     { return e.eventID }
func (e *RecommendationSettled) EventType() string      { return "RecommendationSettled" }
func (e *RecommendationSettled) AggregateID() uuid.UUID { return e.sessionID }
func (e *RecommendationSettled) OccurredAt() time.Time  { return e.occurredAt }

func (e *RecommendationSettled) Phase() domain.RecommendationPhase { return e.phase }

func (e *RecommendationSettled) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID                  `json:"event_id"`
		EventType  string                     `json:"event_type"`
		SessionID  uuid.UUID                  `json:"session_id"`
		Label      string                     `json:"label"`
		Language   string                     `json:"language"`
		Phase      domain.RecommendationPhase `json:"phase"`
		Reason     string                     `json:"reason,omitempty"`
		OccurredAt time.Time                  `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		EventType:  e.EventType(),
		SessionID:  e.sessionID,
		Label:      e.label,
		Language:   e.language,
		Phase:      e.phase,
		Reason:     e.reason,
		OccurredAt: e.occurredAt,
	})
}
