package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Sink records audit events. Record must never block the decision or
// approval path and must swallow delivery failures; audit entries are
// diagnostic, not source of truth.
type Sink interface {
	Record(ctx context.Context, event Event)
	Close() error
}

// WatermillSink publishes audit events on a watermill publisher. Events are
// queued onto a bounded channel drained by a background worker; entries are
// dropped with a warning when the queue is full.
type WatermillSink struct {
	publisher message.Publisher
	logger    *slog.Logger
	queue     chan Event
	done      chan struct{}
}

const defaultQueueSize = 1024

// NewWatermillSink creates a sink over the given publisher and starts its
// background worker.
func NewWatermillSink(publisher message.Publisher, logger *slog.Logger) *WatermillSink {
	sink := &WatermillSink{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan Event, defaultQueueSize),
		done:      make(chan struct{}),
	}

	go sink.drain()

	return sink
}

// Record enqueues the event without blocking. Under backpressure the event
// is dropped; losing diagnostic entries is the accepted tradeoff.
func (s *WatermillSink) Record(_ context.Context, event Event) {
	select {
	case s.queue <- event:
	default:
		s.logger.Warn("Audit queue full, dropping event", "event_type", event.GetType())
	}
}

func (s *WatermillSink) drain() {
	defer close(s.done)

	for event := range s.queue {
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("Failed to marshal audit event", "event_type", event.GetType(), "error", err)

			continue
		}

		msg := message.NewMessage(watermill.NewULID(), payload)
		msg.Metadata.Set(EventTypeMetadataKey, string(event.GetType()))

		err = s.publisher.Publish(Topic, msg)
		if err != nil {
			s.logger.Warn("Failed to publish audit event", "event_type", event.GetType(), "error", err)
		}
	}
}

// Close stops accepting events, flushes the queue, and closes the publisher.
func (s *WatermillSink) Close() error {
	close(s.queue)
	<-s.done

	return s.publisher.Close()
}

// NopSink discards every event. Useful in tests and when no audit stream is
// configured.
type NopSink struct{}

func (NopSink) Record(context.Context, Event) {}

func (NopSink) Close() error {
	return nil
}
