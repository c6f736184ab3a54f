package chat

import (
	"context"
	"time"

	"github.com/notdezzi/freedomtalk/logger"
	"github.com/notdezzi/freedomtalk/service/storage"
	"github.com/notdezzi/freedomtalk/tools/errs"
	"github.com/notdezzi/freedomtalk/tools/ids"
)

// ScopeModerator lets a session delete other users' messages.
const ScopeModerator = "moderator"

type messageSendHandler struct{ s *Server }

func (h *messageSendHandler) Kind() string { return KindMessageSend }

func (h *messageSendHandler) Handle(ctx context.Context, sess *Session, f *Frame) error {
	if f.ChannelID == "" {
		return errs.ErrMalformedPayload.WithDetail("channel_id required")
	}
	if f.Content == "" && f.AttachmentURL == "" {
		return errs.ErrMalformedPayload.WithDetail("content or attachment_url required")
	}
	if len(f.Content) > maxContentLen {
		return errs.ErrMalformedPayload.WithDetail("content too long")
	}
	// must be actively listening on the channel; joining already proved
	// store membership
	if !h.s.rooms.Joined(sess.ID, f.ChannelID) {
		return errs.ErrNotAMember
	}

	now := time.Now().UTC()
	m := &storage.Message{
		ID:            ids.GenerateString(),
		ChannelID:     f.ChannelID,
		UserID:        sess.UserID,
		Content:       f.Content,
		AttachmentURL: f.AttachmentURL,
		ReplyToID:     f.ReplyToID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.s.store.SaveMessage(ctx, m); err != nil {
		logger.Errorf("[router] save message channel=%s: %v", f.ChannelID, err)
		return errs.ErrInternal
	}
	// sender receives its own echo
	h.s.broadcastChannel(f.ChannelID, BuildMessageNew(m), "")
	return nil
}

type messageEditHandler struct{ s *Server }

func (h *messageEditHandler) Kind() string { return KindMessageEdit }

func (h *messageEditHandler) Handle(ctx context.Context, sess *Session, f *Frame) error {
	if f.MessageID == "" || f.Content == "" {
		return errs.ErrMalformedPayload.WithDetail("message_id and content required")
	}
	if len(f.Content) > maxContentLen {
		return errs.ErrMalformedPayload.WithDetail("content too long")
	}
	m, err := h.s.getMessage(ctx, f.MessageID)
	if err != nil {
		return err
	}
	if m.UserID != sess.UserID {
		return errs.ErrNotOwner
	}
	now := time.Now().UTC()
	if err := h.s.store.UpdateMessageContent(ctx, m.ID, f.Content, now); err != nil {
		logger.Errorf("[router] update message id=%s: %v", m.ID, err)
		return errs.ErrInternal
	}
	h.s.broadcastChannel(m.ChannelID, BuildMessageEdit(m.ID, m.ChannelID, sess.UserID, f.Content, now), "")
	return nil
}

type messageDeleteHandler struct{ s *Server }

func (h *messageDeleteHandler) Kind() string { return KindMessageDelete }

func (h *messageDeleteHandler) Handle(ctx context.Context, sess *Session, f *Frame) error {
	if f.MessageID == "" {
		return errs.ErrMalformedPayload.WithDetail("message_id required")
	}
	m, err := h.s.getMessage(ctx, f.MessageID)
	if err != nil {
		return err
	}
	if m.UserID != sess.UserID && !sess.HasScope(ScopeModerator) {
		return errs.ErrForbidden
	}
	if err := h.s.store.DeleteMessage(ctx, m.ID); err != nil && !storage.IsNotFound(err) {
		logger.Errorf("[router] delete message id=%s: %v", m.ID, err)
		return errs.ErrInternal
	}
	h.s.broadcastChannel(m.ChannelID, BuildMessageDelete(m.ID, m.ChannelID, sess.UserID, time.Now().UTC()), "")
	return nil
}

// getMessage maps store misses to a per-event validation error and store
// failures to an internal one.
func (s *Server) getMessage(ctx context.Context, messageID string) (*storage.Message, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if storage.IsNotFound(err) {
		return nil, errs.ErrMalformedPayload.WithDetail("unknown message_id")
	}
	if err != nil {
		logger.Errorf("[router] get message id=%s: %v", messageID, err)
		return nil, errs.ErrInternal
	}
	return m, nil
}
