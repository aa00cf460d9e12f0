package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProducer(t testing.TB) *Producer {
	t.Helper()
	producer, err := NewProducer(ProducerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "scan-events",
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return producer
}

func TestNewProducer_Defaults(t *testing.T) {
	producer := newTestProducer(t)

	assert.Equal(t, "scan-events", producer.config.Topic)
	assert.Equal(t, 3, producer.config.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, producer.config.RetryBackoff)
	assert.Equal(t, 10*time.Second, producer.config.WriteTimeout)
	assert.Equal(t, 100, producer.config.BatchSize)
	assert.Equal(t, 10*time.Millisecond, producer.writer.BatchTimeout)
	assert.False(t, producer.config.Async)
}

func TestNewProducer_CustomConfig(t *testing.T) {
	producer, err := NewProducer(ProducerConfig{
		Brokers:      []string{"localhost:9092", "localhost:9093"},
		Topic:        "scan-events",
		MaxRetries:   5,
		RetryBackoff: 200 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		BatchSize:    50,
		Async:        true,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, producer.config.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, producer.config.RetryBackoff)
	assert.Equal(t, 5*time.Second, producer.config.WriteTimeout)
	assert.Equal(t, 50, producer.config.BatchSize)
	assert.True(t, producer.config.Async)
}

func TestNewProducer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  ProducerConfig
		wantErr string
	}{
		{
			name:    "empty brokers",
			config:  ProducerConfig{Brokers: []string{}, Topic: "scan-events"},
			wantErr: "brokers list is empty",
		},
		{
			name:    "empty topic",
			config:  ProducerConfig{Brokers: []string{"localhost:9092"}},
			wantErr: "topic is empty",
		},
		{
			name:    "negative max retries",
			config:  ProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "scan-events", MaxRetries: -1},
			wantErr: "max_retries cannot be negative",
		},
		{
			name:    "negative retry backoff",
			config:  ProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "scan-events", RetryBackoff: -time.Second},
			wantErr: "retry_backoff cannot be negative",
		},
		{
			name:    "negative write timeout",
			config:  ProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "scan-events", WriteTimeout: -time.Second},
			wantErr: "write_timeout cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			producer, err := NewProducer(tt.config)

			require.Error(t, err)
			assert.Nil(t, producer)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retriable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"wrapped deadline", errors.Join(errors.New("write"), context.DeadlineExceeded), false},
		{"connection refused", errors.New("connection refused"), true},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"timeout", errors.New("i/o timeout"), true},
		{"leader not available", errors.New("leader not available"), true},
		{"invalid message", errors.New("invalid message format"), false},
		{"message too large", errors.New("message too large"), false},
		{"authorization failed", errors.New("authorization failed"), false},
		{"unknown error retried", errors.New("some random error"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retriable, isRetriableError(tt.err))
		})
	}
}

func TestProducer_GetMetrics(t *testing.T) {
	producer := newTestProducer(t)

	metrics := producer.GetMetrics()
	assert.Zero(t, metrics.MessagesPublished)
	assert.Zero(t, metrics.MessagesFailed)
	assert.Zero(t, metrics.RetriesTotal)

	producer.metrics.MessagesPublished.Add(10)
	producer.metrics.MessagesFailed.Add(2)
	producer.metrics.RetriesTotal.Add(5)
	producer.metrics.PublishDuration.Add(int64(100 * time.Millisecond))

	metrics = producer.GetMetrics()
	assert.Equal(t, int64(10), metrics.MessagesPublished)
	assert.Equal(t, int64(2), metrics.MessagesFailed)
	assert.Equal(t, int64(5), metrics.RetriesTotal)
	assert.Equal(t, 10*time.Millisecond, metrics.AvgPublishTime)
}

func TestProducer_GetMetrics_NoPublished(t *testing.T) {
	producer := newTestProducer(t)
	producer.metrics.PublishDuration.Add(int64(100 * time.Millisecond))

	assert.Equal(t, time.Duration(0), producer.GetMetrics().AvgPublishTime)
}

func TestProducer_Close(t *testing.T) {
	producer := newTestProducer(t)

	// the writer never connected, so the first close only flips the flag
	_ = producer.Close()
	assert.True(t, producer.closed.Load())

	err := producer.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already closed")
}

func TestProducer_ClosedRejectsCalls(t *testing.T) {
	producer := newTestProducer(t)
	producer.closed.Store(true)
	ctx := context.Background()

	err := producer.Publish(ctx, "session-1", []byte(`{}`))
	require.ErrorIs(t, err, errClosed)

	err = producer.PublishBatch(ctx, []Message{
		{Key: "session-1", Value: []byte("a")},
		{Key: "session-2", Value: []byte("b")},
	})
	require.ErrorIs(t, err, errClosed)

	err = producer.HealthCheck(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "producer is closed")
}

func TestProducer_PublishBatch_EmptyMessages(t *testing.T) {
	producer := newTestProducer(t)

	assert.NoError(t, producer.PublishBatch(context.Background(), nil))
	assert.Zero(t, producer.GetMetrics().MessagesPublished)
}

func TestSetDefaults(t *testing.T) {
	cfg := ProducerConfig{}
	setDefaults(&cfg)

	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
}

func TestSetDefaults_DoesNotOverrideExisting(t *testing.T) {
	cfg := ProducerConfig{
		MaxRetries:   5,
		RetryBackoff: 200 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		BatchSize:    50,
		BatchTimeout: time.Second,
	}
	setDefaults(&cfg)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchTimeout)
}

func BenchmarkProducer_GetMetrics(b *testing.B) {
	producer := newTestProducer(b)
	producer.metrics.MessagesPublished.Add(1000)
	producer.metrics.PublishDuration.Add(int64(time.Second))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = producer.GetMetrics()
	}
}
