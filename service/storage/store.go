package storage

import (
	"context"
	"errors"
	"time"
)

// Store is the system of record the gateway reads and writes around the
// real-time path. Authoritative channel membership, message history and user
// records live here; the gateway only sequences calls into it and never
// holds its own locks across them.
type Store interface {
	// Membership / authorization capability.
	IsChannelMember(ctx context.Context, channelID, userID string) (bool, error)
	ChannelsOfUser(ctx context.Context, userID string) ([]string, error)

	// Messages.
	SaveMessage(ctx context.Context, m *Message) error
	GetMessage(ctx context.Context, messageID string) (*Message, error)
	UpdateMessageContent(ctx context.Context, messageID, content string, at time.Time) error
	DeleteMessage(ctx context.Context, messageID string) error

	// Reactions. RemoveReaction reports whether the caller owned one.
	AddReaction(ctx context.Context, r *Reaction) error
	RemoveReaction(ctx context.Context, messageID, userID, emoji string) (bool, error)

	// Users.
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUserStatus(ctx context.Context, userID, status, customStatus string, at time.Time) error
}

type Message struct {
	ID            string    `bson:"_id" json:"id"`
	ChannelID     string    `bson:"channel_id" json:"channel_id"`
	UserID        string    `bson:"user_id" json:"user_id"`
	Content       string    `bson:"content" json:"content"`
	AttachmentURL string    `bson:"attachment_url,omitempty" json:"attachment_url,omitempty"`
	ReplyToID     string    `bson:"reply_to_id,omitempty" json:"reply_to_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

type Reaction struct {
	ID        string    `bson:"_id" json:"id"`
	MessageID string    `bson:"message_id" json:"message_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Emoji     string    `bson:"emoji" json:"emoji"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Scopes       []string  `bson:"scopes,omitempty" json:"scopes,omitempty"`
	Status       string    `bson:"status" json:"status"`
	CustomStatus string    `bson:"custom_status,omitempty" json:"custom_status,omitempty"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// ChannelMember is the authoritative membership row behind IsChannelMember.
type ChannelMember struct {
	ChannelID string    `bson:"channel_id" json:"channel_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	JoinedAt  time.Time `bson:"joined_at" json:"joined_at"`
}

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }

// NotFound marks a lookup miss; check with IsNotFound.
func NotFound(what string) error { return &notFoundError{what: what} }

func IsNotFound(err error) bool {
	var nf *notFoundError
	return errors.As(err, &nf)
}
