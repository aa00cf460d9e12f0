package outbox

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/romariotrain/eyescan/internal/scan/models"
	"github.com/romariotrain/eyescan/internal/scan/workflow"
)

var _ workflow.EventSink = (*Queue)(nil)

const DefaultQueueSize = 1024

// Queue is a bounded in-process buffer of domain events between the scan
// workflow and the Publisher. Emit never blocks; when the buffer is full the
// event is dropped.
type Queue struct {
	events  chan models.DomainEvent
	dropped atomic.Int64
	logger  zerolog.Logger
}

func NewQueue(size int, logger zerolog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		events: make(chan models.DomainEvent, size),
		logger: logger.With().Str("component", "outbox_queue").Logger(),
	}
}

func (q *Queue) Emit(ev models.DomainEvent) {
	select {
	case q.events <- ev:
	default:
		n := q.dropped.Add(1)
		q.logger.Warn().
			Str("event_id", ev.EventID().String()).
			Str("event_type", ev.EventType()).
			Int64("dropped_total", n).
			Msg("outbox queue full, event dropped")
	}
}

// Drain removes up to max events without waiting.
func (q *Queue) Drain(max int) []models.DomainEvent {
	var out []models.DomainEvent
	for len(out) < max {
		select {
		case ev := <-q.events:
			out = append(out, ev)
		default:
			return out
		}
	}
	return out
}

func (q *Queue) Len() int { return len(q.events) }

func (q *Queue) Dropped() int64 { return q.dropped.Load() }
