package chat

import (
	"context"
	"time"

	"github.com/notdezzi/freedomtalk/logger"
	"github.com/notdezzi/freedomtalk/service/storage"
	"github.com/notdezzi/freedomtalk/tools/errs"
	"github.com/notdezzi/freedomtalk/tools/ids"
)

const maxEmojiLen = 32

type reactionAddHandler struct{ s *Server }

func (h *reactionAddHandler) Kind() string { return KindReactionAdd }

func (h *reactionAddHandler) Handle(ctx context.Context, sess *Session, f *Frame) error {
	if f.MessageID == "" || f.Emoji == "" {
		return errs.ErrMalformedPayload.WithDetail("message_id and emoji required")
	}
	if len(f.Emoji) > maxEmojiLen {
		return errs.ErrMalformedPayload.WithDetail("emoji too long")
	}
	m, err := h.s.getMessage(ctx, f.MessageID)
	if err != nil {
		return err
	}
	if err := h.s.checkMembership(ctx, m.ChannelID, sess.UserID); err != nil {
		return err
	}
	r := &storage.Reaction{
		ID:        ids.GenerateString(),
		MessageID: m.ID,
		UserID:    sess.UserID,
		Emoji:     f.Emoji,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.s.store.AddReaction(ctx, r); err != nil {
		logger.Errorf("[router] add reaction message=%s: %v", m.ID, err)
		return errs.ErrInternal
	}
	h.s.broadcastChannel(m.ChannelID, BuildReactionAdd(m.ChannelID, r), "")
	return nil
}

type reactionRemoveHandler struct{ s *Server }

func (h *reactionRemoveHandler) Kind() string { return KindReactionRemove }

func (h *reactionRemoveHandler) Handle(ctx context.Context, sess *Session, f *Frame) error {
	if f.MessageID == "" || f.Emoji == "" {
		return errs.ErrMalformedPayload.WithDetail("message_id and emoji required")
	}
	m, err := h.s.getMessage(ctx, f.MessageID)
	if err != nil {
		return err
	}
	owned, err := h.s.store.RemoveReaction(ctx, m.ID, sess.UserID, f.Emoji)
	if err != nil {
		logger.Errorf("[router] remove reaction message=%s: %v", m.ID, err)
		return errs.ErrInternal
	}
	if !owned {
		// only the reactor may remove their own reaction
		return errs.ErrNotOwner
	}
	h.s.broadcastChannel(m.ChannelID, BuildReactionRemove(m.ID, m.ChannelID, sess.UserID, f.Emoji, time.Now().UTC()), "")
	return nil
}
