package audit

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// RunLogger consumes the audit topic and writes every event to the
// structured log. It is the default downstream collaborator when no
// dedicated audit service subscribes to the stream.
func RunLogger(ctx context.Context, subscriber message.Subscriber, logger *slog.Logger) error {
	messages, err := subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			logger.InfoContext(ctx, "audit",
				"event_type", msg.Metadata.Get(EventTypeMetadataKey),
				"payload", string(msg.Payload))
			msg.Ack()
		}
	}()

	return nil
}
