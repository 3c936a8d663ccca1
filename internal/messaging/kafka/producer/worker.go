package producer

import (
	"context"
	"time"

	"go-timeoff/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultPollInterval = 3 * time.Second

// ProcessOutboxEvents drains the outbox on a fixed cadence until ctx is
// cancelled. Delivery is at-least-once: a crash between WriteMessages and
// MarkSent republishes the event, and consumers are expected to tolerate
// that.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			drainOnce(ctx, repo, writer, log)
		}
	}
}

func drainOnce(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	log *zap.Logger,
) {
	batch, err := repo.ListPending(ctx, 50)
	if err != nil {
		log.Error("list pending outbox events failed", zap.Error(err))
		return
	}
	if len(batch) == 0 {
		return
	}

	log.Info("draining outbox", zap.Int("count", len(batch)))

	for _, event := range batch {
		if err := publish(ctx, writer, event); err != nil {
			log.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("topic", event.Topic),
				zap.Int("retry_count", event.RetryCount),
				zap.Error(err),
			)
			// MarkFailed schedules the retry; its own failure just means
			// the row stays pending and is retried immediately.
			_ = repo.MarkFailed(ctx, event.ID, err.Error())
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			log.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		log.Info("outbox event published",
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
		)
	}
}

func publish(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	// Keyed by aggregate id so all events for one record land in the same
	// partition, preserving order per record.
	return writer.WriteMessages(ctx, kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		},
	})
}
