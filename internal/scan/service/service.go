package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/eyescan/internal/scan/models"
	"github.com/romariotrain/eyescan/internal/scan/repository"
	"github.com/romariotrain/eyescan/internal/scan/workflow"
)

const DefaultSessionTTL = 30 * time.Minute

// Service manages scan sessions on behalf of the HTTP layer.
type Service struct {
	repo       repository.SessionRepository
	workflow   workflow.Config
	sessionTTL time.Duration
	logger     zerolog.Logger
	clock      func() time.Time
	idGen      func() uuid.UUID
}

func New(repo repository.SessionRepository, cfg workflow.Config, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		repo:       repo,
		workflow:   cfg,
		sessionTTL: sessionTTL,
		logger:     cfg.Logger.With().Str("component", "scan_service").Logger(),
		clock:      time.Now,
		idGen:      uuid.New,
	}
}

// CreateSession opens a new, empty scan session.
func (s *Service) CreateSession(ctx context.Context) (workflow.Snapshot, error) {
	w, err := workflow.New(s.idGen(), s.workflow)
	if err != nil {
		return workflow.Snapshot{}, fmt.Errorf("new session: %w", err)
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return workflow.Snapshot{}, err
	}

	s.logger.Info().Str("session_id", w.ID().String()).Msg("session created")
	return w.Snapshot(), nil
}

// GetSession returns the session snapshot. Errors from the repository (e.g.
// models.ErrNotFound) pass through for the transport layer to map.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (workflow.Snapshot, error) {
	w, err := s.session(ctx, id)
	if err != nil {
		return workflow.Snapshot{}, err
	}
	return w.Snapshot(), nil
}

// SelectFile validates and stores the chosen file. A rejected file returns a
// *models.ValidationError together with the updated snapshot.
func (s *Service) SelectFile(ctx context.Context, id uuid.UUID, cand models.UploadCandidate) (workflow.Snapshot, error) {
	w, err := s.session(ctx, id)
	if err != nil {
		return workflow.Snapshot{}, err
	}
	if err := w.Select(cand); err != nil {
		return w.Snapshot(), err
	}
	return w.Snapshot(), nil
}

func (s *Service) RemoveFile(ctx context.Context, id uuid.UUID) (workflow.Snapshot, error) {
	w, err := s.session(ctx, id)
	if err != nil {
		return workflow.Snapshot{}, err
	}
	w.Remove()
	return w.Snapshot(), nil
}

// Submit sends the selected file. With wait the call returns after the
// submission settled; otherwise right after it started.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, wait bool) (workflow.Snapshot, error) {
	w, err := s.session(ctx, id)
	if err != nil {
		return workflow.Snapshot{}, err
	}

	if wait {
		_, err = w.Submit(ctx)
	} else {
		_, err = w.SubmitAsync()
	}
	if err != nil {
		return w.Snapshot(), err
	}
	return w.Snapshot(), nil
}

func (s *Service) SetHistory(ctx context.Context, id uuid.UUID, history, language string) (workflow.Snapshot, error) {
	w, err := s.session(ctx, id)
	if err != nil {
		return workflow.Snapshot{}, err
	}
	if err := w.SetHistory(history, language); err != nil {
		return workflow.Snapshot{}, err
	}
	return w.Snapshot(), nil
}

// Recommendation derives the recommendation for the session's current label
// and history. refresh forces a new fetch for an unchanged key.
func (s *Service) Recommendation(ctx context.Context, id uuid.UUID, refresh bool) (models.RecommendationState, error) {
	w, err := s.session(ctx, id)
	if err != nil {
		return models.RecommendationState{}, err
	}
	if refresh {
		return w.RefreshRecommendation(ctx), nil
	}
	return w.Recommendation(ctx), nil
}

func (s *Service) EndSession(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("session_id", id.String()).Msg("session ended")
	return nil
}

// SweepIdle removes sessions idle for longer than the session TTL.
func (s *Service) SweepIdle(ctx context.Context) (int, error) {
	n, err := s.repo.Sweep(ctx, s.clock().Add(-s.sessionTTL))
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int("count", n).Msg("idle sessions removed")
	}
	return n, nil
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepIdle(ctx); err != nil {
				s.logger.Error().Err(err).Msg("failed to sweep sessions")
			}
		}
	}
}

func (s *Service) session(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}
