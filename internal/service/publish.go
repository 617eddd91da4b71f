package service

import (
	"context"

	"optik-backend/internal/events"

	"go.uber.org/zap"
)

// publish emits an event once the writing transaction has committed. A broker
// failure never fails the request that caused the event.
func publish(ctx context.Context, p events.Publisher, log *zap.SugaredLogger, key string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(context.WithoutCancel(ctx), key, payload); err != nil {
		log.Errorw("failed to publish event", "routing_key", key, "error", err)
	}
}
