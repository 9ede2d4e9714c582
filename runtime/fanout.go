package runtime

import (
	"context"
	stderrors "errors"
	"inbox-live/contract"
	"inbox-live/domain"
	"inbox-live/errors"
	"inbox-live/observability"
	"log/slog"
)

// Fanout pushes freshly persisted messages to the live connections of their receiver.
//
// It provides best-effort delivery: an offline receiver or a failed push is
// logged and counted, never reported to the sender. Pushes for one message are
// issued synchronously by the caller, so two messages delivered one after the
// other reach a given connection queue in that order.
type Fanout struct {
	log      *slog.Logger
	registry contract.IPresenceRegistry
	metrics  *observability.Metrics
}

func NewFanout(log *slog.Logger, registry contract.IPresenceRegistry, metrics *observability.Metrics) *Fanout {
	return &Fanout{log: log, registry: registry, metrics: metrics}
}

// Deliver must only be called once the message is durable.
func (f *Fanout) Deliver(ctx context.Context, message domain.Message) {
	handles := f.registry.Lookup(message.ReceiverID)
	if len(handles) == 0 {
		f.log.DebugContext(ctx, "Receiver offline, push skipped",
			"message_id", message.ID, "receiver_id", message.ReceiverID)
		f.metrics.PushSkipped()
		return
	}

	for _, handle := range handles {
		if err := handle.Push(message); err != nil {
			f.log.WarnContext(ctx, "Push dropped",
				"message_id", message.ID,
				"receiver_id", message.ReceiverID,
				"connection_id", handle.ID(),
				"error", err)
			f.metrics.PushFailed(dropReason(err))
			continue
		}
		f.metrics.PushDelivered()
	}
}

func dropReason(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrOutboundFull):
		return "queue_full"
	case stderrors.Is(err, errors.ErrSessionClosed):
		return "closed"
	default:
		return "error"
	}
}
