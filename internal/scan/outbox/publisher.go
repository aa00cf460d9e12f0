package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/eyescan/internal/scan/kafka"
	"github.com/romariotrain/eyescan/internal/scan/models"
)

// EventPublisher delivers a batch of serialized events in one call.
// *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishBatch(ctx context.Context, messages []kafka.Message) error
}

// Publisher drains the Queue on a ticker and hands events to an EventPublisher.
// Events that fail to publish stay pending and are retried on the next tick,
// so delivery is at-least-once for the lifetime of the process.
type Publisher struct {
	queue     *Queue
	target    EventPublisher
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger

	pending []models.DomainEvent
}

type PublisherConfig struct {
	Queue     *Queue
	Target    EventPublisher
	Interval  time.Duration
	BatchSize int
	Logger    zerolog.Logger
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("outbox queue is required")
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("event publisher is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got: %v", cfg.Interval)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got: %d", cfg.BatchSize)
	}

	return &Publisher{
		queue:     cfg.Queue,
		target:    cfg.Target,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger.With().Str("component", "outbox_publisher").Logger(),
	}, nil
}

// Start publishes batches until ctx is canceled.
func (p *Publisher) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("batch_size", p.batchSize).
		Msg("outbox publisher started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().
				Err(ctx.Err()).
				Int("pending", len(p.pending)+p.queue.Len()).
				Msg("outbox publisher stopped")
			return ctx.Err()

		case <-ticker.C:
			p.publishBatch(ctx)
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) {
	if room := p.batchSize - len(p.pending); room > 0 {
		p.pending = append(p.pending, p.queue.Drain(room)...)
	}
	if len(p.pending) == 0 {
		return
	}

	events := make([]models.DomainEvent, 0, len(p.pending))
	messages := make([]kafka.Message, 0, len(p.pending))
	skipped := 0

	for _, ev := range p.pending {
		payload, err := json.Marshal(ev)
		if err != nil {
			p.logger.Error().
				Err(err).
				Str("event_id", ev.EventID().String()).
				Str("event_type", ev.EventType()).
				Msg("failed to encode event, skipping")
			skipped++
			continue
		}
		events = append(events, ev)
		messages = append(messages, kafka.Message{Key: ev.AggregateID().String(), Value: payload})
	}

	if len(messages) == 0 {
		p.pending = nil
		return
	}

	if err := p.target.PublishBatch(ctx, messages); err != nil {
		// the whole batch stays pending; the next tick retries it
		p.pending = events
		p.logger.Error().
			Err(err).
			Int("count", len(events)).
			Msg("failed to publish batch")
		return
	}
	p.pending = nil

	p.logger.Info().
		Int("published", len(events)).
		Int("skipped", skipped).
		Int64("dropped_total", p.queue.Dropped()).
		Msg("batch processing completed")
}

// LogPublisher writes events to the log instead of a broker. Used when no
// Kafka brokers are configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "event_log").Logger()}
}

func (l *LogPublisher) PublishBatch(_ context.Context, messages []kafka.Message) error {
	for _, m := range messages {
		l.logger.Info().
			Str("key", m.Key).
			RawJSON("event", m.Value).
			Msg("scan event")
	}
	return nil
}
