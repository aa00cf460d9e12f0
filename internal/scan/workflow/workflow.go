package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/eyescan/internal/scan/domain"
	"github.com/romariotrain/eyescan/internal/scan/inference"
	"github.com/romariotrain/eyescan/internal/scan/intake"
	"github.com/romariotrain/eyescan/internal/scan/models"
)

// EventSink receives domain events. Emit must not block.
type EventSink interface {
	Emit(ev models.DomainEvent)
}

type Config struct {
	Classifier  Classifier
	Recommender Recommender
	Sink        EventSink
	Timeout     time.Duration
	Language    string
	Logger      zerolog.Logger
}

// Workflow is the state record of one scan session.
type Workflow struct {
	id         uuid.UUID
	createdAt  time.Time
	submission *Controller
	recommend  *Fetcher
	sink       EventSink
	clock      func() time.Time
	logger     zerolog.Logger

	mu         sync.Mutex
	selected   *models.UploadCandidate
	rejection  models.RejectReason
	history    string
	language   string
	lastActive time.Time
}

// Snapshot is a coherent read-only view of a session.
type Snapshot struct {
	ID             uuid.UUID                  `json:"id"`
	CreatedAt      time.Time                  `json:"created_at"`
	Selection      *models.Selection          `json:"selection,omitempty"`
	Rejection      string                     `json:"rejection,omitempty"`
	History        string                     `json:"history"`
	Language       string                     `json:"language"`
	Submission     models.SubmissionState     `json:"submission"`
	Recommendation models.RecommendationState `json:"recommendation"`
}

func New(id uuid.UUID, cfg Config) (*Workflow, error) {
	if cfg.Classifier == nil || cfg.Recommender == nil {
		return nil, fmt.Errorf("%w: classifier and recommender are required", models.ErrInvalidArgument)
	}
	lang := cfg.Language
	if lang == "" {
		lang = models.LanguageEnglish
	}
	if !models.SupportedLanguage(lang) {
		return nil, fmt.Errorf("%w: unsupported language %q", models.ErrInvalidArgument, lang)
	}

	logger := cfg.Logger.With().Str("session_id", id.String()).Logger()
	now := time.Now()

	w := &Workflow{
		id:         id,
		createdAt:  now,
		submission: NewController(cfg.Classifier, cfg.Timeout, logger),
		recommend:  NewFetcher(cfg.Recommender, cfg.Timeout, logger),
		sink:       cfg.Sink,
		clock:      time.Now,
		logger:     logger,
		language:   lang,
		lastActive: now,
	}
	w.submission.onSettle = w.submissionSettled
	w.recommend.onSettle = w.recommendationSettled
	return w, nil
}

func (w *Workflow) ID() uuid.UUID { return w.id }

// Select validates a newly chosen file. An accepted file replaces the previous
// selection; a rejected one clears it and records the reason.
func (w *Workflow) Select(cand models.UploadCandidate) error {
	out := intake.Validate(cand)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActive = w.clock()

	if !out.Accepted {
		w.selected = nil
		w.rejection = out.Reason
		w.logger.Info().
			Str("file", cand.FileName).
			Str("reason", string(out.Reason)).
			Msg("file rejected")
		return out.Err()
	}

	c := out.Candidate
	w.selected = &c
	w.rejection = ""
	return nil
}

// Remove discards the selected file and any rejection message.
func (w *Workflow) Remove() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActive = w.clock()
	w.selected = nil
	w.rejection = ""
}

// Submit sends the selected file and waits for the result. The request itself
// is bounded only by the workflow timeout: if ctx ends first, Submit returns
// ctx.Err() with the Uploading state and the submission still settles.
func (w *Workflow) Submit(ctx context.Context) (models.SubmissionState, error) {
	sub, err := w.begin()
	if err != nil {
		return w.submission.Current(), err
	}

	done := make(chan models.SubmissionState, 1)
	go func() { done <- sub.Run(context.WithoutCancel(ctx)) }()

	select {
	case st := <-done:
		return st, nil
	case <-ctx.Done():
		return sub.State(), ctx.Err()
	}
}

// SubmitAsync starts the submission in the background and returns the
// Uploading state right away. The request is bounded by the workflow timeout.
func (w *Workflow) SubmitAsync() (models.SubmissionState, error) {
	sub, err := w.begin()
	if err != nil {
		return w.submission.Current(), err
	}
	go sub.Run(context.Background())
	return sub.State(), nil
}

func (w *Workflow) begin() (*Submission, error) {
	w.mu.Lock()
	w.lastActive = w.clock()
	sel := w.selected
	w.mu.Unlock()

	if sel == nil {
		return nil, models.ErrNoFileSelected
	}
	return w.submission.Begin(*sel)
}

// SetHistory updates the patient history and, when non-empty, the language.
func (w *Workflow) SetHistory(history, language string) error {
	language = strings.TrimSpace(language)
	if language != "" && !models.SupportedLanguage(language) {
		return fmt.Errorf("%w: unsupported language %q", models.ErrInvalidArgument, language)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActive = w.clock()
	w.history = history
	if language != "" {
		w.language = language
	}
	return nil
}

// Key is the recommendation key implied by the current state. Label is empty
// unless the latest submission succeeded.
func (w *Workflow) Key() models.RecommendationKey {
	label := w.submission.Current().Label()

	w.mu.Lock()
	defer w.mu.Unlock()
	return models.RecommendationKey{Label: label, History: w.history, Language: w.language}
}

// Recommendation derives the recommendation for the current key, fetching only
// when the key changed since the last derivation.
func (w *Workflow) Recommendation(ctx context.Context) models.RecommendationState {
	w.touch()
	ctx = inference.WithRequestID(ctx, w.id.String())
	return w.recommend.Fetch(ctx, w.Key())
}

// RefreshRecommendation re-fetches the recommendation for the current key.
func (w *Workflow) RefreshRecommendation(ctx context.Context) models.RecommendationState {
	w.touch()
	key := w.Key()
	ctx = inference.WithRequestID(ctx, w.id.String())
	if cur := w.recommend.Current(); cur.Key != key {
		return w.recommend.Fetch(ctx, key)
	}
	return w.recommend.Refresh(ctx)
}

func (w *Workflow) SubmissionState() models.SubmissionState {
	return w.submission.Current()
}

// RecommendationState reports the recommendation for the current key without
// triggering a fetch. A state derived for an older key is never returned: until
// the new key is derived the state reads Loading, or AwaitingDiagnosis when
// there is no label.
func (w *Workflow) RecommendationState() models.RecommendationState {
	key := w.Key()
	cur := w.recommend.Current()
	if cur.Key == key {
		return cur
	}
	if key.Label == "" {
		return models.RecommendationState{Key: key, Phase: domain.AwaitingDiagnosis}
	}
	return models.RecommendationState{Key: key, Phase: domain.Loading}
}

func (w *Workflow) Snapshot() Snapshot {
	sub := w.submission.Current()
	rec := w.RecommendationState()

	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		ID:             w.id,
		CreatedAt:      w.createdAt,
		History:        w.history,
		Language:       w.language,
		Submission:     sub,
		Recommendation: rec,
	}
	if w.selected != nil {
		s.Selection = &models.Selection{
			FileName:  w.selected.FileName,
			MimeType:  w.selected.DeclaredMimeType,
			SizeBytes: w.selected.SizeBytes,
		}
	}
	if w.rejection != "" {
		s.Rejection = w.rejection.Message()
	}
	return s
}

// LastActive is the time of the last caller interaction with the session.
func (w *Workflow) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

func (w *Workflow) touch() {
	w.mu.Lock()
	w.lastActive = w.clock()
	w.mu.Unlock()
}

func (w *Workflow) submissionSettled(st models.SubmissionState) {
	if w.sink == nil {
		return
	}
	switch st.Phase {
	case domain.Succeeded:
		w.sink.Emit(models.NewScanClassified(w.id, st.ScanID, *st.Result))
	case domain.Failed:
		w.sink.Emit(models.NewScanFailed(w.id, st.ScanID, st.Kind, st.Reason))
	}
}

func (w *Workflow) recommendationSettled(st models.RecommendationState) {
	if w.sink == nil {
		return
	}
	w.sink.Emit(models.NewRecommendationSettled(w.id, st))
}
