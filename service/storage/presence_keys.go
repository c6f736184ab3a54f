package storage

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pkg/errors"
)

// Fleet-visible presence hints. Each gateway writes ft:presence:<user> with a
// TTL while it holds at least one connection for the user; lookups answer
// "is this user on some instance right now" without a broker round trip.
// The TTL bounds staleness if an instance dies without cleaning up.

type PresenceKeys struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewPresenceKeys(rdb *goredis.Client, ttl time.Duration) *PresenceKeys {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceKeys{rdb: rdb, ttl: ttl}
}

func presenceKey(user string) string { return "ft:presence:" + user }

// Online marks the user online on this gateway and renews the TTL.
func (p *PresenceKeys) Online(ctx context.Context, user, gatewayID string) error {
	return errors.Wrap(p.rdb.Set(ctx, presenceKey(user), gatewayID, p.ttl).Err(), "presence online")
}

// Offline removes the key. Idempotent.
func (p *PresenceKeys) Offline(ctx context.Context, user string) error {
	return errors.Wrap(p.rdb.Del(ctx, presenceKey(user)).Err(), "presence offline")
}

// Lookup reports whether the user is online anywhere and on which gateway.
func (p *PresenceKeys) Lookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "presence lookup")
	}
	return val, true, nil
}
