package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-timeoff/internal/events"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StatsKey is the Redis hash holding per-type report counts for one
// company and month. Management dashboards read it directly.
func StatsKey(companyID string, occurredAt time.Time) string {
	return fmt.Sprintf("stats:reports:%s:%s", companyID, occurredAt.UTC().Format("2006-01"))
}

// ConsumeReportSubmitted tallies submitted attendance reports into Redis.
// Counting twice after a redelivery only skews a dashboard number, so the
// consumer favors progress over exactly-once.
func ConsumeReportSubmitted(
	ctx context.Context,
	reader *kafkago.Reader,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.report_stats")
	log.Info("report stats consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("report stats consumer stopped")
				return
			}
			log.Error("fetch report submitted message failed", zap.Error(err))
			continue
		}

		var event events.ReportSubmittedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode report_submitted event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		key := StatsKey(event.CompanyID, event.OccurredAt)
		if err := rdb.HIncrBy(ctx, key, event.ReportType, 1).Err(); err != nil {
			log.Error("increment report stats failed",
				zap.String("key", key),
				zap.String("report_type", event.ReportType),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit report submitted message failed", zap.Error(err))
			continue
		}

		log.Info("report stats updated",
			zap.String("company_id", event.CompanyID),
			zap.String("report_type", event.ReportType),
		)
	}
}
