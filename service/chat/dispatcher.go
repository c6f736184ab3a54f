package chat

import (
	"context"

	"github.com/notdezzi/freedomtalk/tools/errs"
)

// Handler processes one inbound event kind: validate shape, authorize,
// sequence the store call, broadcast.
type Handler interface {
	Kind() string
	Handle(ctx context.Context, sess *Session, f *Frame) error
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Kind()] = h }

func (d *Dispatcher) Dispatch(ctx context.Context, sess *Session, f *Frame) error {
	if sess.Disconnected() {
		return errs.ErrTransport.WithDetail("session disconnected")
	}
	h, ok := d.handlers[f.Kind]
	if !ok {
		return errs.ErrMalformedPayload.WithDetail("unknown kind " + f.Kind)
	}
	return h.Handle(ctx, sess, f)
}
