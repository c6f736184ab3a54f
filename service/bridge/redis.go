package bridge

import (
	"context"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/notdezzi/freedomtalk/logger"
)

// RedisBridge carries fanout traffic over Redis pub/sub, the same fabric the
// rest of the platform already runs on. go-redis resubscribes on reconnect;
// events published while the link was down are simply missed.
type RedisBridge struct {
	rdb *goredis.Client

	mu   sync.Mutex
	subs []*goredis.PubSub
}

func NewRedisBridge(rdb *goredis.Client) *RedisBridge {
	return &RedisBridge{rdb: rdb}
}

func (b *RedisBridge) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.rdb.Publish(ctx, topic, payload).Err()
}

func (b *RedisBridge) Subscribe(ctx context.Context, topic string, h Handler) (func(), error) {
	ps := b.rdb.Subscribe(ctx, topic)
	// force the subscription onto the wire before we return
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	b.mu.Lock()
	b.subs = append(b.subs, ps)
	b.mu.Unlock()

	go func() {
		for msg := range ps.Channel() {
			h([]byte(msg.Payload))
		}
		logger.Debugf("[bridge] redis subscription closed topic=%s", topic)
	}()

	return func() { _ = ps.Close() }, nil
}

func (b *RedisBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ps := range b.subs {
		_ = ps.Close()
	}
	b.subs = nil
	return nil
}
