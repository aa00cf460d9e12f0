package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/eyescan/internal/scan/kafka"
	"github.com/romariotrain/eyescan/internal/scan/models"
)

func failedEvent(sessionID uuid.UUID) models.DomainEvent {
	return models.NewScanFailed(sessionID, uuid.New(), models.KindTransport, "Error occurred while processing the image.")
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue(2, zerolog.Nop())

	q.Emit(failedEvent(uuid.New()))
	q.Emit(failedEvent(uuid.New()))
	q.Emit(failedEvent(uuid.New()))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, int64(1), q.Dropped())

	got := q.Drain(10)
	assert.Len(t, got, 2)
	assert.Empty(t, q.Drain(10))
}

func TestQueue_DrainRespectsMax(t *testing.T) {
	q := NewQueue(0, zerolog.Nop())
	for i := 0; i < 5; i++ {
		q.Emit(failedEvent(uuid.New()))
	}

	assert.Len(t, q.Drain(3), 3)
	assert.Equal(t, 2, q.Len())
}

func TestNewPublisher_Validation(t *testing.T) {
	q := NewQueue(1, zerolog.Nop())
	target := new(TargetMock)

	_, err := NewPublisher(PublisherConfig{Target: target, Interval: time.Second, BatchSize: 1})
	require.Error(t, err)

	_, err = NewPublisher(PublisherConfig{Queue: q, Interval: time.Second, BatchSize: 1})
	require.Error(t, err)

	_, err = NewPublisher(PublisherConfig{Queue: q, Target: target, BatchSize: 1})
	require.Error(t, err)

	_, err = NewPublisher(PublisherConfig{Queue: q, Target: target, Interval: time.Second})
	require.Error(t, err)
}

func TestPublisher_PublishBatch_OneCallKeyedBySession(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(10, zerolog.Nop())
	target := new(TargetMock)

	p, err := NewPublisher(PublisherConfig{Queue: q, Target: target, Interval: time.Second, BatchSize: 10, Logger: zerolog.Nop()})
	require.NoError(t, err)

	sessions := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	var emitted []models.DomainEvent
	for _, id := range sessions {
		ev := failedEvent(id)
		emitted = append(emitted, ev)
		q.Emit(ev)
	}

	target.On("PublishBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			msgs := args.Get(1).([]kafka.Message)
			require.Len(t, msgs, len(sessions))
			for i, m := range msgs {
				assert.Equal(t, sessions[i].String(), m.Key)

				var payload map[string]any
				require.NoError(t, json.Unmarshal(m.Value, &payload))
				assert.Equal(t, emitted[i].EventID().String(), payload["event_id"])
			}
		}).
		Return(nil).
		Once()

	p.publishBatch(ctx)

	target.AssertExpectations(t)
	target.AssertNumberOfCalls(t, "PublishBatch", 1)
	assert.Empty(t, p.pending)
}

func TestPublisher_FailedBatchRetried(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(10, zerolog.Nop())
	target := new(TargetMock)

	p, err := NewPublisher(PublisherConfig{Queue: q, Target: target, Interval: time.Second, BatchSize: 10, Logger: zerolog.Nop()})
	require.NoError(t, err)

	q.Emit(failedEvent(uuid.New()))
	q.Emit(failedEvent(uuid.New()))

	target.On("PublishBatch", mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()
	p.publishBatch(ctx)
	require.Len(t, p.pending, 2)

	target.On("PublishBatch", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 2
	})).Return(nil).Once()
	p.publishBatch(ctx)
	assert.Empty(t, p.pending)

	target.AssertNumberOfCalls(t, "PublishBatch", 2)
}

func TestPublisher_BatchSizeBoundsDrain(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(10, zerolog.Nop())
	target := new(TargetMock)

	p, err := NewPublisher(PublisherConfig{Queue: q, Target: target, Interval: time.Second, BatchSize: 2, Logger: zerolog.Nop()})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		q.Emit(failedEvent(uuid.New()))
	}

	target.On("PublishBatch", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 2
	})).Return(nil).Once()
	p.publishBatch(ctx)

	assert.Equal(t, 1, q.Len())
	target.AssertExpectations(t)
}

func TestPublisher_StartStopsOnCancel(t *testing.T) {
	q := NewQueue(10, zerolog.Nop())
	target := new(TargetMock)
	target.On("PublishBatch", mock.Anything, mock.Anything).Return(nil)

	p, err := NewPublisher(PublisherConfig{Queue: q, Target: target, Interval: 5 * time.Millisecond, BatchSize: 10, Logger: zerolog.Nop()})
	require.NoError(t, err)

	q.Emit(failedEvent(uuid.New()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	require.Eventually(t, func() bool {
		return q.Len() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestLogPublisher(t *testing.T) {
	lp := NewLogPublisher(zerolog.Nop())
	assert.NoError(t, lp.PublishBatch(context.Background(), []kafka.Message{{Key: "k", Value: []byte(`{"a":1}`)}}))
}
