package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 100 * time.Millisecond
	defaultWriteTimeout = 10 * time.Second
	defaultBatchSize    = 100
	defaultBatchTimeout = 10 * time.Millisecond
)

var errClosed = errors.New("producer is closed")

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	MaxRetries   int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
	BatchSize    int
	BatchTimeout time.Duration
	Async        bool
	Logger       zerolog.Logger
}

// Message is a single keyed record for PublishBatch.
type Message struct {
	Key   string
	Value []byte
}

type producerMetrics struct {
	MessagesPublished atomic.Int64
	MessagesFailed    atomic.Int64
	RetriesTotal      atomic.Int64
	PublishDuration   atomic.Int64
}

// Metrics is a point-in-time copy of the producer counters.
type Metrics struct {
	MessagesPublished int64
	MessagesFailed    int64
	RetriesTotal      int64
	AvgPublishTime    time.Duration
}

// Producer publishes scan events to a single Kafka topic.
type Producer struct {
	writer  *kafkago.Writer
	config  ProducerConfig
	logger  zerolog.Logger
	metrics producerMetrics
	closed  atomic.Bool
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid producer config: %w", err)
	}
	setDefaults(&cfg)

	return &Producer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkago.Hash{},
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchTimeout,
			WriteTimeout: cfg.WriteTimeout,
			RequiredAcks: kafkago.RequireAll,
			Async:        cfg.Async,
			// retries are handled in writeWithRetry
			MaxAttempts: 1,
		},
		config: cfg,
		logger: cfg.Logger.With().
			Str("component", "kafka_producer").
			Str("topic", cfg.Topic).
			Logger(),
	}, nil
}

// Publish writes one message keyed by key. Records with the same key land on
// the same partition.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	if p.closed.Load() {
		return errClosed
	}
	return p.writeWithRetry(ctx, kafkago.Message{Key: []byte(key), Value: value})
}

func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if p.closed.Load() {
		return errClosed
	}
	if len(messages) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, kafkago.Message{Key: []byte(m.Key), Value: m.Value})
	}
	return p.writeWithRetry(ctx, msgs...)
}

func (p *Producer) writeWithRetry(ctx context.Context, msgs ...kafkago.Message) error {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.metrics.RetriesTotal.Add(1)
			backoff := p.config.RetryBackoff * time.Duration(1<<(attempt-1))
			p.logger.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying kafka publish")

			select {
			case <-ctx.Done():
				p.metrics.MessagesFailed.Add(int64(len(msgs)))
				return fmt.Errorf("kafka publish: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = p.writer.WriteMessages(ctx, msgs...)
		if lastErr == nil {
			p.metrics.MessagesPublished.Add(int64(len(msgs)))
			p.metrics.PublishDuration.Add(int64(time.Since(start)))
			return nil
		}
		if !isRetriableError(lastErr) {
			break
		}
	}

	p.metrics.MessagesFailed.Add(int64(len(msgs)))
	return fmt.Errorf("kafka publish: %w", lastErr)
}

func (p *Producer) GetMetrics() Metrics {
	published := p.metrics.MessagesPublished.Load()
	m := Metrics{
		MessagesPublished: published,
		MessagesFailed:    p.metrics.MessagesFailed.Load(),
		RetriesTotal:      p.metrics.RetriesTotal.Load(),
	}
	if published > 0 {
		m.AvgPublishTime = time.Duration(p.metrics.PublishDuration.Load() / published)
	}
	return m
}

// HealthCheck dials the first reachable broker.
func (p *Producer) HealthCheck(ctx context.Context) error {
	if p.closed.Load() {
		return errClosed
	}

	var lastErr error
	for _, broker := range p.config.Brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("kafka health check: %w", lastErr)
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return errors.New("producer already closed")
	}

	m := p.GetMetrics()
	p.logger.Info().
		Int64("published", m.MessagesPublished).
		Int64("failed", m.MessagesFailed).
		Int64("retries", m.RetriesTotal).
		Msg("kafka producer closed")

	return p.writer.Close()
}

func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var kerr kafkago.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"invalid", "too large", "authorization", "authentication", "unsupported"} {
		if strings.Contains(msg, s) {
			return false
		}
	}
	return true
}

func validateConfig(cfg *ProducerConfig) error {
	switch {
	case len(cfg.Brokers) == 0:
		return errors.New("brokers list is empty")
	case cfg.Topic == "":
		return errors.New("topic is empty")
	case cfg.MaxRetries < 0:
		return errors.New("max_retries cannot be negative")
	case cfg.RetryBackoff < 0:
		return errors.New("retry_backoff cannot be negative")
	case cfg.WriteTimeout < 0:
		return errors.New("write_timeout cannot be negative")
	}
	return nil
}

func setDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
}
