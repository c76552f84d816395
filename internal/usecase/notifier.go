package usecase

import (
	"context"
	"log/slog"

	"github.com/polkiloo/fooddispatch/internal/domain/event"
)

// Notifier delivers committed state changes to connected observers.
type Notifier interface {
	Publish(ctx context.Context, evt event.Event, audiences ...event.Audience) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, event.Event, ...event.Audience) error {
	return nil
}

// notify never fails the caller: the state change is already committed.
func notify(ctx context.Context, n Notifier, logger *slog.Logger, evt event.Event, audiences ...event.Audience) {
	if err := n.Publish(ctx, evt, audiences...); err != nil {
		logger.Warn("push notification failed",
			slog.String("event", string(evt.Type)),
			slog.String("error", err.Error()),
		)
	}
}
