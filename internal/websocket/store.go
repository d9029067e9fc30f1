package websocket

import (
	"context"
	"time"

	"realtime-chat/internal/models"
)

// MembershipStore answers channel membership questions
type MembershipStore interface {
	ListChannelIDsByUser(ctx context.Context, userID uint) ([]uint, error)
	IsChannelMember(ctx context.Context, channelID, userID uint) (bool, error)
}

// MessageStore persists messages. CreateMessage returns the stored row
// joined with the sender's display fields and attachments.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) (*models.MessageView, error)
	MarkMessageRead(ctx context.Context, messageID uint) error
}

type PresenceStore interface {
	UpdateUserStatus(ctx context.Context, userID uint, status string, at time.Time) error
}

// Store is the persistent store as seen by the real-time layer
type Store interface {
	MembershipStore
	MessageStore
	PresenceStore
}

// PresenceCache mirrors presence somewhere cheap to read (redis)
type PresenceCache interface {
	SetUserOnline(ctx context.Context, userID uint) error
	SetUserOffline(ctx context.Context, userID uint) error
}

// MessagePublisher streams persisted messages to downstream consumers
type MessagePublisher interface {
	PublishMessage(ctx context.Context, view *models.MessageView) error
}

// AttachmentSigner rewrites attachment paths into fetchable URLs
type AttachmentSigner interface {
	SignAttachments(ctx context.Context, attachments []models.Attachment) []models.Attachment
}

// TokenVerifier resolves a bearer token to a user id
type TokenVerifier interface {
	VerifyToken(token string) (uint, error)
}
