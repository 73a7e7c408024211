package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/webapp-gateway/internal/events"
)

// StartAuditWorker logs every session and identity transition.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}
	audit := logger.Named("audit")
	dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		level := zap.InfoLevel
		if e.Type == events.EventIdentityRefreshFailed {
			level = zap.WarnLevel
		}
		if ce := audit.Check(level, string(e.Type)); ce != nil {
			ce.Write(
				zap.String("event_id", e.ID),
				zap.String("session", e.SessionKey),
				zap.Time("at", e.Timestamp),
				zap.Any("payload", e.Payload),
			)
		}
		return nil
	})
}
