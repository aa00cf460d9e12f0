package models

// MaxUploadBytes is the largest scan accepted for submission (5 MiB).
const MaxUploadBytes int64 = 5 * 1024 * 1024

// UploadCandidate is a file the user selected for submission. It is never mutated
// after creation; a new selection replaces it wholesale.
type UploadCandidate struct {
	FileName         string
	DeclaredMimeType string
	SizeBytes        int64
	RawBytes         []byte
}

// RejectReason explains why a candidate was not accepted.
type RejectReason string

const (
	NotAnImage RejectReason = "not_an_image"
	TooLarge   RejectReason = "too_large"
)

// Message is the user-facing text for the reason.
func (r RejectReason) Message() string {
	switch r {
	case NotAnImage:
		return "Please upload an image file (jpg, png, etc.)"
	case TooLarge:
		return "File size exceeds 5MB limit"
	default:
		return "File rejected"
	}
}

// ValidationOutcome is either Accepted (Reason empty, Candidate set) or Rejected.
type ValidationOutcome struct {
	Accepted  bool
	Candidate UploadCandidate
	Reason    RejectReason
}

func Accept(c UploadCandidate) ValidationOutcome {
	return ValidationOutcome{Accepted: true, Candidate: c}
}

func Reject(reason RejectReason) ValidationOutcome {
	return ValidationOutcome{Reason: reason}
}

// Err returns nil for an accepted outcome and a *ValidationError otherwise.
func (o ValidationOutcome) Err() error {
	if o.Accepted {
		return nil
	}
	return &ValidationError{Reason: o.Reason}
}
