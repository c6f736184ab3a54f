package bridge

import "context"

// Handler receives every payload published on a topic by any gateway
// instance, including this one. The bridge never suppresses self-originated
// echoes; subscribers must be idempotent.
type Handler func(payload []byte)

// Bridge is the cross-instance pub/sub fabric. Delivery is best-effort and
// unordered across instances; within one publisher's stream order holds.
// There is no ack and no replay: a briefly disconnected instance just misses
// intervening events.
type Bridge interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe installs a standing handler and returns a cancel func that
	// tears the subscription down.
	Subscribe(ctx context.Context, topic string, h Handler) (func(), error)
	Close() error
}
