// Package workflow coordinates a scan session: file selection, submission to the
// classifier and the recommendation that follows from the resulting label.
//
// Every request is tagged with a monotonically increasing token. Only the holder
// of the latest token may commit a result, so a slow response to an older
// request can never overwrite the state produced by a newer one. Superseded
// requests are not aborted; their results are dropped.
package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/eyescan/internal/scan/domain"
	"github.com/romariotrain/eyescan/internal/scan/inference"
	"github.com/romariotrain/eyescan/internal/scan/intake"
	"github.com/romariotrain/eyescan/internal/scan/models"
)

const (
	DefaultTimeout = 30 * time.Second

	classifyFailedReason  = "Error occurred while processing the image."
	classifyTimeoutReason = "The analysis service did not respond in time."
)

type Classifier interface {
	Classify(ctx context.Context, c models.UploadCandidate) (models.ClassificationResult, error)
}

// Controller owns the SubmissionState of one scan session.
type Controller struct {
	classifier Classifier
	timeout    time.Duration
	logger     zerolog.Logger
	clock      func() time.Time
	idGen      func() uuid.UUID
	onSettle   func(models.SubmissionState)

	mu    sync.Mutex
	token uint64
	state models.SubmissionState
}

func NewController(classifier Classifier, timeout time.Duration, logger zerolog.Logger) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		classifier: classifier,
		timeout:    timeout,
		logger:     logger.With().Str("component", "submission").Logger(),
		clock:      time.Now,
		idGen:      uuid.New,
		state:      models.SubmissionState{Phase: domain.Idle},
	}
}

// Current returns a copy of the authoritative state.
func (c *Controller) Current() models.SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySubmission(c.state)
}

// Submit validates the candidate, sends it to the classifier and waits for the
// outcome. A rejected candidate returns *models.ValidationError and leaves the
// state untouched; remote failures are reported through a Failed state, not an error.
func (c *Controller) Submit(ctx context.Context, cand models.UploadCandidate) (models.SubmissionState, error) {
	sub, err := c.Begin(cand)
	if err != nil {
		return c.Current(), err
	}
	return sub.Run(ctx), nil
}

// Submission is a started request that has not been sent yet.
type Submission struct {
	c      *Controller
	token  uint64
	cand   models.UploadCandidate
	state  models.SubmissionState
	logger zerolog.Logger
}

// Begin moves the controller to Uploading for a new submission, superseding any
// request still in flight. The network call happens in Run.
func (c *Controller) Begin(cand models.UploadCandidate) (*Submission, error) {
	if out := intake.Validate(cand); !out.Accepted {
		return nil, out.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := domain.ValidateSubmissionTransition(c.state.Phase, domain.Uploading); err != nil {
		return nil, err
	}
	if c.state.Phase == domain.Uploading {
		c.logger.Debug().
			Str("scan_id", c.state.ScanID.String()).
			Msg("in-flight submission superseded")
	}

	c.token++
	c.state = models.SubmissionState{
		ScanID:    c.idGen(),
		Phase:     domain.Uploading,
		StartedAt: c.clock(),
	}

	return &Submission{
		c:     c,
		token: c.token,
		cand:  cand,
		state: c.state,
		logger: c.logger.With().
			Str("scan_id", c.state.ScanID.String()).
			Uint64("token", c.token).
			Logger(),
	}, nil
}

// State is the Uploading state this submission started with.
func (s *Submission) State() models.SubmissionState {
	return s.state
}

// Run performs the classification and commits the outcome unless a newer
// submission has started meanwhile. It returns the authoritative state.
func (s *Submission) Run(ctx context.Context) models.SubmissionState {
	ctx, cancel := context.WithTimeout(ctx, s.c.timeout)
	defer cancel()
	ctx = inference.WithRequestID(ctx, s.state.ScanID.String())

	s.logger.Info().
		Str("file", s.cand.FileName).
		Int64("size", s.cand.SizeBytes).
		Msg("submitting scan")

	res, err := s.c.classifier.Classify(ctx, s.cand)

	next := s.state
	if err != nil {
		next.Phase = domain.Failed
		next.Kind = models.KindOf(err)
		next.Reason = failureReason(err, classifyFailedReason, classifyTimeoutReason)
		s.logger.Warn().Err(err).Str("kind", string(next.Kind)).Msg("scan classification failed")
	} else {
		next.Phase = domain.Succeeded
		next.Result = &res
		s.logger.Info().
			Str("label", res.Label).
			Float64("confidence", res.Confidence).
			Msg("scan classified")
	}

	committed, ok := s.c.commit(s.token, next)
	if !ok {
		s.logger.Debug().Msg("stale classification result discarded")
	}
	return committed
}

func (c *Controller) commit(token uint64, next models.SubmissionState) (models.SubmissionState, bool) {
	c.mu.Lock()
	if token != c.token {
		cur := copySubmission(c.state)
		c.mu.Unlock()
		return cur, false
	}
	if err := domain.ValidateSubmissionTransition(c.state.Phase, next.Phase); err != nil {
		cur := copySubmission(c.state)
		c.mu.Unlock()
		c.logger.Error().Err(err).Msg("refusing submission transition")
		return cur, false
	}
	next.SettledAt = c.clock()
	c.state = next
	out := copySubmission(c.state)
	hook := c.onSettle
	c.mu.Unlock()

	if hook != nil {
		hook(out)
	}
	return out, true
}

func copySubmission(s models.SubmissionState) models.SubmissionState {
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}

// failureReason picks the user-facing text: application errors verbatim,
// timeouts and everything else generic.
func failureReason(err error, generic, timeout string) string {
	var aerr *models.ApplicationError
	switch {
	case errors.As(err, &aerr):
		return aerr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return timeout
	default:
		return generic
	}
}
