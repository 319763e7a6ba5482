package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/repository"
)

// recordEvent writes an audit event. Journal failures never fail the operation.
func recordEvent(ctx context.Context, events repository.EventRecorder, logger *zap.Logger, kind, subject string, data map[string]interface{}) {
	event := &domain.SessionEvent{
		Kind:    kind,
		Subject: subject,
		Data:    data,
	}
	if err := events.Record(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("Failed to record session event", zap.String("kind", kind), zap.Error(err))
	}
}
