package chat

import (
	"context"
	"time"

	"github.com/notdezzi/freedomtalk/tools/errs"
)

type joinHandler struct{ s *Server }

func (h *joinHandler) Kind() string { return KindChannelJoin }

func (h *joinHandler) Handle(ctx context.Context, sess *Session, f *Frame) error {
	if f.ChannelID == "" {
		return errs.ErrMalformedPayload.WithDetail("channel_id required")
	}
	check := func() error {
		return h.s.checkMembership(ctx, f.ChannelID, sess.UserID)
	}
	joined, err := h.s.rooms.Join(sess.ID, f.ChannelID, check)
	if err != nil {
		return err
	}
	if joined {
		// member-joined notice goes to the others, not the joiner
		h.s.broadcastChannel(f.ChannelID, BuildChannelJoin(f.ChannelID, sess.UserID, time.Now().UTC()), sess.ID)
	}
	return nil
}

type leaveHandler struct{ s *Server }

func (h *leaveHandler) Kind() string { return KindChannelLeave }

func (h *leaveHandler) Handle(_ context.Context, sess *Session, f *Frame) error {
	if f.ChannelID == "" {
		return errs.ErrMalformedPayload.WithDetail("channel_id required")
	}
	// self-initiated, no authorization; idempotent when not joined
	if h.s.rooms.Leave(sess.ID, f.ChannelID) {
		h.s.broadcastChannel(f.ChannelID, BuildChannelLeave(f.ChannelID, sess.UserID, time.Now().UTC()), "")
	}
	return nil
}
