package chat

import (
	"context"
	"time"

	"github.com/notdezzi/freedomtalk/logger"
	"github.com/notdezzi/freedomtalk/tools/errs"
)

const maxCustomStatusLen = 128

type presenceUpdateHandler struct{ s *Server }

func (h *presenceUpdateHandler) Kind() string { return KindPresenceUpdate }

// Handle persists the chosen status, then publishes it on the broker. Local
// delivery rides the bridge echo: every instance, this one included, fans
// the event out to its own connections from the subscription side, so the
// broadcast logic exists in exactly one place.
func (h *presenceUpdateHandler) Handle(ctx context.Context, sess *Session, f *Frame) error {
	st := Status(f.Status)
	if !st.Valid() {
		return errs.ErrMalformedPayload.WithDetail("status must be ONLINE|IDLE|DND|OFFLINE")
	}
	if len(f.CustomStatus) > maxCustomStatusLen {
		return errs.ErrMalformedPayload.WithDetail("custom_status too long")
	}
	if err := h.s.store.UpdateUserStatus(ctx, sess.UserID, string(st), f.CustomStatus, time.Now().UTC()); err != nil {
		logger.Errorf("[router] update status user=%s: %v", sess.UserID, err)
		return errs.ErrInternal
	}
	h.s.publishPresence(sess.UserID, st, f.CustomStatus, PresenceActionUpdate)
	return nil
}
