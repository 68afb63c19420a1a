package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/channels/gochannel"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/channels/kafka"
)

// NewAuditChannel builds the audit event bus from the provider name.
// "kafka" streams events to the brokers in KAFKA_BROKERS; the default is an
// in-process channel whose events are consumed by the audit logger.
func NewAuditChannel(provider, serviceName string, logger *slog.Logger) (message.Publisher, message.Subscriber) {
	watermillLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermillLogger, serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka audit channel: %w", err))
		}

		return pub, sub
	default:
		pub, sub, err := gochannel.CreateChannel(watermillLogger)
		if err != nil {
			panic(fmt.Errorf("failed to create in-process audit channel: %w", err))
		}

		return pub, sub
	}
}
