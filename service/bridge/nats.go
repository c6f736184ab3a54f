package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/notdezzi/freedomtalk/logger"
)

type NatsConfig struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NatsBridge is the NATS-backed bridge, for deployments that already run a
// NATS cluster instead of Redis. Core NATS only: no JetStream, no replay,
// matching the bridge contract.
type NatsBridge struct {
	nc *nats.Conn
}

func NewNatsBridge(cfg NatsConfig) (*NatsBridge, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("[bridge] nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("[bridge] nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &NatsBridge{nc: nc}, nil
}

func (b *NatsBridge) Publish(_ context.Context, topic string, payload []byte) error {
	return b.nc.Publish(topic, payload)
}

func (b *NatsBridge) Subscribe(_ context.Context, topic string, h Handler) (func(), error) {
	sub, err := b.nc.Subscribe(topic, func(m *nats.Msg) {
		h(m.Data)
	})
	if err != nil {
		return nil, errors.Wrap(err, "nats subscribe")
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (b *NatsBridge) Close() error {
	return b.nc.Drain()
}
