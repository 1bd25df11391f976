// README: Relay drains the outbox to the partner exchange on a ticker.
package outbox

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Publisher delivers a message body under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte, messageID string) error
}

type Source interface {
	Process(ctx context.Context, limit int, fn func(context.Context, Message) error) (BatchResult, error)
}

var _ Source = (*Store)(nil)

const defaultBatchSize = 50

type Relay struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	batchSize int
}

func NewRelay(source Source, publisher Publisher, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{source: source, publisher: publisher, logger: logger, batchSize: defaultBatchSize}
}

// RunOnce publishes one batch. Failed messages stay pending for the next call.
func (r *Relay) RunOnce(ctx context.Context) (BatchResult, error) {
	return r.source.Process(ctx, r.batchSize, func(ctx context.Context, m Message) error {
		err := r.publisher.Publish(ctx, m.Topic, m.Payload, strconv.FormatInt(m.ID, 10))
		if err != nil {
			r.logger.WarnContext(ctx, "outbox publish failed",
				slog.Int64("message_id", m.ID),
				slog.String("topic", m.Topic),
				slog.Int("attempts", m.Attempts+1),
				slog.Any("error", err),
			)
		}
		return err
	})
}

// Run ticks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := r.RunOnce(ctx)
			if err != nil {
				r.logger.ErrorContext(ctx, "outbox relay batch failed", slog.Any("error", err))
				continue
			}
			if res.Sent > 0 || res.Failed > 0 {
				r.logger.InfoContext(ctx, "outbox relay batch",
					slog.Int("sent", res.Sent),
					slog.Int("failed", res.Failed),
				)
			}
		}
	}
}
