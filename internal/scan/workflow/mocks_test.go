package workflow

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/eyescan/internal/scan/models"
)

type ClassifierMock struct {
	mock.Mock
}

func (m *ClassifierMock) Classify(ctx context.Context, c models.UploadCandidate) (models.ClassificationResult, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(models.ClassificationResult), args.Error(1)
}

type RecommenderMock struct {
	mock.Mock
}

func (m *RecommenderMock) Recommend(ctx context.Context, key models.RecommendationKey) (models.RecommendationResult, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(models.RecommendationResult), args.Error(1)
}

// reply is what a gated fake hands back once released.
type reply struct {
	label string
	err   error
}

// gatedClassifier blocks each call until the test releases the gate registered
// for the candidate's file name. Started calls are announced on started.
type gatedClassifier struct {
	gates   map[string]chan reply
	started chan string
}

func newGatedClassifier(names ...string) *gatedClassifier {
	g := &gatedClassifier{gates: make(map[string]chan reply), started: make(chan string, len(names))}
	for _, n := range names {
		g.gates[n] = make(chan reply)
	}
	return g
}

func (g *gatedClassifier) Classify(ctx context.Context, c models.UploadCandidate) (models.ClassificationResult, error) {
	g.started <- c.FileName
	select {
	case r := <-g.gates[c.FileName]:
		if r.err != nil {
			return models.ClassificationResult{}, r.err
		}
		return models.ClassificationResult{Label: r.label, Confidence: 0.9}, nil
	case <-ctx.Done():
		return models.ClassificationResult{}, models.WrapTransport("predict", ctx.Err())
	}
}

// gatedRecommender blocks per label the same way.
type gatedRecommender struct {
	gates   map[string]chan reply
	started chan string
}

func newGatedRecommender(labels ...string) *gatedRecommender {
	g := &gatedRecommender{gates: make(map[string]chan reply), started: make(chan string, len(labels))}
	for _, l := range labels {
		g.gates[l] = make(chan reply)
	}
	return g
}

func (g *gatedRecommender) Recommend(ctx context.Context, key models.RecommendationKey) (models.RecommendationResult, error) {
	g.started <- key.Label
	select {
	case r := <-g.gates[key.Label]:
		if r.err != nil {
			return models.RecommendationResult{}, r.err
		}
		return models.ParseRecommendation("cause of "+r.label, "treat "+r.label), nil
	case <-ctx.Done():
		return models.RecommendationResult{}, models.WrapTransport("do_all", ctx.Err())
	}
}

type sinkRecorder struct {
	mu     sync.Mutex
	events []models.DomainEvent
}

func (s *sinkRecorder) Emit(ev models.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *sinkRecorder) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.EventType())
	}
	return out
}
