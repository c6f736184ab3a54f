package chat

import (
	"context"
	"time"

	"github.com/notdezzi/freedomtalk/tools/errs"
)

// typingHandler covers typing:start and typing:stop; the two differ only in
// the echoed kind. No store call: typing is ephemeral, nothing persists.
type typingHandler struct {
	s    *Server
	kind string
}

func (h *typingHandler) Kind() string { return h.kind }

func (h *typingHandler) Handle(_ context.Context, sess *Session, f *Frame) error {
	if f.ChannelID == "" {
		return errs.ErrMalformedPayload.WithDetail("channel_id required")
	}
	if !h.s.rooms.Joined(sess.ID, f.ChannelID) {
		return errs.ErrNotAMember
	}
	// sender excluded: nobody needs their own typing indicator
	h.s.broadcastChannel(f.ChannelID, BuildTyping(h.kind, f.ChannelID, sess.UserID, time.Now().UTC()), sess.ID)
	return nil
}
