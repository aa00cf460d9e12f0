package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/eyescan/internal/scan/domain"
	"github.com/romariotrain/eyescan/internal/scan/models"
)

const (
	recommendFailedReason  = "Failed to fetch recommendations"
	recommendTimeoutReason = "The recommendation service did not respond in time."
)

type Recommender interface {
	Recommend(ctx context.Context, key models.RecommendationKey) (models.RecommendationResult, error)
}

// Fetcher derives a RecommendationState from a (label, history, language) key.
type Fetcher struct {
	recommender Recommender
	timeout     time.Duration
	logger      zerolog.Logger
	onSettle    func(models.RecommendationState)

	mu    sync.Mutex
	token uint64
	state models.RecommendationState
}

func NewFetcher(recommender Recommender, timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		recommender: recommender,
		timeout:     timeout,
		logger:      logger.With().Str("component", "recommendation").Logger(),
		state:       models.RecommendationState{Phase: domain.AwaitingDiagnosis},
	}
}

func (f *Fetcher) Current() models.RecommendationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyRecommendation(f.state)
}

// Fetch derives the recommendation for key. An empty label never reaches the
// network and yields AwaitingDiagnosis. If key equals the key of the current
// state, that state is returned as is, whether settled or still loading.
func (f *Fetcher) Fetch(ctx context.Context, key models.RecommendationKey) models.RecommendationState {
	f.mu.Lock()
	if key.Label == "" {
		f.token++
		f.state = models.RecommendationState{Key: key, Phase: domain.AwaitingDiagnosis}
		out := copyRecommendation(f.state)
		f.mu.Unlock()
		return out
	}
	if key == f.state.Key && f.state.Phase != domain.AwaitingDiagnosis {
		out := copyRecommendation(f.state)
		f.mu.Unlock()
		return out
	}
	token := f.begin(key)
	f.mu.Unlock()

	return f.run(ctx, token, key)
}

// Refresh re-fetches the current key even if it already settled.
func (f *Fetcher) Refresh(ctx context.Context) models.RecommendationState {
	f.mu.Lock()
	key := f.state.Key
	if key.Label == "" {
		out := copyRecommendation(f.state)
		f.mu.Unlock()
		return out
	}
	token := f.begin(key)
	f.mu.Unlock()

	return f.run(ctx, token, key)
}

// begin must be called with f.mu held.
func (f *Fetcher) begin(key models.RecommendationKey) uint64 {
	f.token++
	f.state = models.RecommendationState{Key: key, Phase: domain.Loading}
	return f.token
}

func (f *Fetcher) run(parent context.Context, token uint64, key models.RecommendationKey) models.RecommendationState {
	ctx, cancel := context.WithTimeout(parent, f.timeout)
	defer cancel()

	logger := f.logger.With().
		Str("label", key.Label).
		Str("language", key.Language).
		Uint64("token", token).
		Logger()
	logger.Info().Msg("fetching recommendation")

	res, err := f.recommender.Recommend(ctx, key)

	// A caller that gave up says nothing about the remote service: nothing is
	// committed and the next Fetch for this key starts over.
	if err != nil && parent.Err() != nil {
		f.mu.Lock()
		if token == f.token {
			f.token++
			f.state = models.RecommendationState{Phase: domain.AwaitingDiagnosis}
		}
		f.mu.Unlock()
		logger.Debug().Err(parent.Err()).Msg("recommendation abandoned by caller")
		return models.RecommendationState{Key: key, Phase: domain.Loading}
	}

	next := models.RecommendationState{Key: key}
	if err != nil {
		next.Phase = domain.RecommendFailed
		next.Kind = models.KindOf(err)
		next.Reason = failureReason(err, recommendFailedReason, recommendTimeoutReason)
		logger.Warn().Err(err).Str("kind", string(next.Kind)).Msg("recommendation failed")
	} else {
		next.Phase = domain.Ready
		next.Result = &res
		logger.Info().
			Int("causes", len(res.Causes)).
			Int("treatments", len(res.Treatments)).
			Msg("recommendation ready")
	}

	f.mu.Lock()
	if token != f.token {
		out := copyRecommendation(f.state)
		f.mu.Unlock()
		logger.Debug().Msg("stale recommendation discarded")
		return out
	}
	f.state = next
	out := copyRecommendation(f.state)
	hook := f.onSettle
	f.mu.Unlock()

	if hook != nil {
		hook(out)
	}
	return out
}

func copyRecommendation(s models.RecommendationState) models.RecommendationState {
	if s.Result != nil {
		r := models.RecommendationResult{
			Causes:     append([]string(nil), s.Result.Causes...),
			Treatments: append([]string(nil), s.Result.Treatments...),
		}
		if r.Causes == nil {
			r.Causes = []string{}
		}
		if r.Treatments == nil {
			r.Treatments = []string{}
		}
		s.Result = &r
	}
	return s
}
