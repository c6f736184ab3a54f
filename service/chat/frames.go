package chat

import (
	"encoding/json"
	"time"

	"github.com/notdezzi/freedomtalk/logger"
	"github.com/notdezzi/freedomtalk/service/storage"
	"github.com/notdezzi/freedomtalk/tools/errs"
)

// Client-facing event kinds. Inbound frames and outbound envelopes share the
// vocabulary except message:send, which fans out as message:new.
const (
	KindChannelJoin    = "channel:join"
	KindChannelLeave   = "channel:leave"
	KindMessageSend    = "message:send"
	KindMessageNew     = "message:new"
	KindMessageEdit    = "message:edit"
	KindMessageDelete  = "message:delete"
	KindReactionAdd    = "reaction:add"
	KindReactionRemove = "reaction:remove"
	KindTypingStart    = "typing:start"
	KindTypingStop     = "typing:stop"
	KindPresenceUpdate = "presence:update"
	KindError          = "error"
)

const maxContentLen = 4000

// Frame is the inbound client frame; payload fields vary by kind.
type Frame struct {
	Kind          string `json:"kind"`
	ChannelID     string `json:"channel_id,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
	Emoji         string `json:"emoji,omitempty"`
	Content       string `json:"content,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	ReplyToID     string `json:"reply_to_id,omitempty"`
	Status        string `json:"status,omitempty"`
	CustomStatus  string `json:"custom_status,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errs.ErrMalformedPayload.WithDetail(err.Error())
	}
	if f.Kind == "" {
		return nil, errs.ErrMalformedPayload.WithDetail("kind required")
	}
	return &f, nil
}

// ---- outbound envelopes ----

func marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// only reachable with a broken builder; never a client input problem
		logger.Errorf("[frames] marshal envelope: %v", err)
		return nil
	}
	return b
}

func BuildChannelJoin(channelID, userID string, at time.Time) []byte {
	return marshal(map[string]any{
		"kind":       KindChannelJoin,
		"channel_id": channelID,
		"user_id":    userID,
		"created_at": at.UTC().Format(time.RFC3339),
	})
}

func BuildChannelLeave(channelID, userID string, at time.Time) []byte {
	return marshal(map[string]any{
		"kind":       KindChannelLeave,
		"channel_id": channelID,
		"user_id":    userID,
		"created_at": at.UTC().Format(time.RFC3339),
	})
}

func BuildMessageNew(m *storage.Message) []byte {
	env := map[string]any{
		"kind":       KindMessageNew,
		"id":         m.ID,
		"channel_id": m.ChannelID,
		"user_id":    m.UserID,
		"content":    m.Content,
		"created_at": m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.AttachmentURL != "" {
		env["attachment_url"] = m.AttachmentURL
	}
	if m.ReplyToID != "" {
		env["reply_to_id"] = m.ReplyToID
	}
	return marshal(env)
}

func BuildMessageEdit(messageID, channelID, userID, content string, at time.Time) []byte {
	return marshal(map[string]any{
		"kind":       KindMessageEdit,
		"message_id": messageID,
		"channel_id": channelID,
		"user_id":    userID,
		"content":    content,
		"updated_at": at.UTC().Format(time.RFC3339),
	})
}

func BuildMessageDelete(messageID, channelID, userID string, at time.Time) []byte {
	return marshal(map[string]any{
		"kind":       KindMessageDelete,
		"message_id": messageID,
		"channel_id": channelID,
		"user_id":    userID,
		"updated_at": at.UTC().Format(time.RFC3339),
	})
}

func BuildReactionAdd(channelID string, r *storage.Reaction) []byte {
	return marshal(map[string]any{
		"kind":        KindReactionAdd,
		"reaction_id": r.ID,
		"message_id":  r.MessageID,
		"channel_id":  channelID,
		"user_id":     r.UserID,
		"emoji":       r.Emoji,
		"created_at":  r.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func BuildReactionRemove(messageID, channelID, userID, emoji string, at time.Time) []byte {
	return marshal(map[string]any{
		"kind":       KindReactionRemove,
		"message_id": messageID,
		"channel_id": channelID,
		"user_id":    userID,
		"emoji":      emoji,
		"updated_at": at.UTC().Format(time.RFC3339),
	})
}

func BuildTyping(kind, channelID, userID string, at time.Time) []byte {
	return marshal(map[string]any{
		"kind":       kind,
		"channel_id": channelID,
		"user_id":    userID,
		"created_at": at.UTC().Format(time.RFC3339),
	})
}

func BuildPresenceBroadcast(d PresenceData) []byte {
	env := map[string]any{
		"kind":       KindPresenceUpdate,
		"user_id":    d.UserID,
		"status":     d.Status,
		"updated_at": time.UnixMilli(d.UpdatedAt).UTC().Format(time.RFC3339),
	}
	if d.CustomStatus != "" {
		env["custom_status"] = d.CustomStatus
	}
	return marshal(env)
}

// BuildErrorReply is sent back to the originating connection only; the event
// that caused it has already been dropped.
func BuildErrorReply(replyTo string, ce *errs.CodeError) []byte {
	return marshal(map[string]any{
		"kind":     KindError,
		"reply_to": replyTo,
		"error":    ce,
	})
}
