package domain

import "fmt"

// SubmissionPhase is the lifecycle position of a scan submission.
type SubmissionPhase string

const (
	Idle      SubmissionPhase = "idle"
	Uploading SubmissionPhase = "uploading"
	Succeeded SubmissionPhase = "succeeded"
	Failed    SubmissionPhase = "failed"
)

// CanTransitionSubmission reports whether a submission may move from one phase to another.
// Uploading -> Uploading is allowed: a newer submission supersedes an in-flight one.
func CanTransitionSubmission(from, to SubmissionPhase) bool {
	switch from {
	case Idle:
		return to == Uploading
	case Uploading:
		return to == Uploading || to == Succeeded || to == Failed
	case Succeeded:
		return to == Uploading
	case Failed:
		return to == Uploading
	default:
		return false
	}
}

func ValidateSubmissionTransition(from, to SubmissionPhase) error {
	if !CanTransitionSubmission(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// RecommendationPhase is the lifecycle position of a recommendation derivation.
type RecommendationPhase string

const (
	AwaitingDiagnosis RecommendationPhase = "awaiting_diagnosis"
	Loading           RecommendationPhase = "loading"
	Ready             RecommendationPhase = "ready"
	RecommendFailed   RecommendationPhase = "failed"
)

// Settled reports whether the phase is a terminal result for its key.
func (p RecommendationPhase) Settled() bool {
	return p == Ready || p == RecommendFailed
}

// Settled reports whether the phase is a terminal result for its submission.
func (p SubmissionPhase) Settled() bool {
	return p == Succeeded || p == Failed
}
