package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes server events to an slog.Logger. Useful during
// development when you want to watch dispatch and publish activity in the
// console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}

	switch {
	case event.Service != nil:
		attrs = append(attrs,
			slog.String("request_type", event.Service.RequestType),
			slog.Uint64("request_handle", uint64(event.Service.RequestHandle)),
		)
		if event.Service.ServiceResult != 0 {
			attrs = append(attrs, slog.Uint64("service_result", uint64(event.Service.ServiceResult)))
		}
	case event.Subscription != nil:
		attrs = append(attrs,
			slog.Uint64("subscription_id", uint64(event.Subscription.SubscriptionID)),
		)
		if event.Subscription.State != "" {
			attrs = append(attrs, slog.String("state", event.Subscription.State))
		}
		if event.Subscription.SequenceNumber != 0 {
			attrs = append(attrs, slog.Uint64("sequence", uint64(event.Subscription.SequenceNumber)))
		}
		if event.Subscription.KeepAlive {
			attrs = append(attrs, slog.Bool("keep_alive", true))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "opcua", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
