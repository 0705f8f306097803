package events

import (
	"context"
	"log/slog"
)

// AuditLogger writes every domain event to the structured log.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With("component", "audit")}
}

func (a *AuditLogger) Handle(ctx context.Context, event Event) error {
	attrs := []any{
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"occurred_at", event.OccurredAt(),
	}
	if data, ok := event.Payload().(map[string]interface{}); ok {
		for k, v := range data {
			attrs = append(attrs, k, v)
		}
	}
	a.logger.InfoContext(ctx, "domain event", attrs...)
	return nil
}
