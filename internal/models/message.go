package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// enum
type MessageKind string

const (
	MessageKindDirect  MessageKind = "direct"
	MessageKindChannel MessageKind = "channel"
)

/** --------------------ENTITIES-------------------- */
// Message is either a direct message (RecipientID set) or a channel
// message (ChannelID set), never both.
type Message struct {
	gorm.Model
	Content     string `gorm:"type:text" json:"content"`
	SenderID    uint   `gorm:"not null;index" json:"senderId"`
	RecipientID *uint  `gorm:"index" json:"recipientId,omitempty"`
	ChannelID   *uint  `gorm:"index" json:"channelId,omitempty"`
	IsRead      bool   `gorm:"not null;default:false" json:"isRead"`

	Attachments []Attachment `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
}

// Attachment is file metadata bound to a message. The bytes themselves are
// uploaded through the REST surface; only the path is kept here.
type Attachment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	MessageID uint      `gorm:"not null;index" json:"messageId"`
	FileName  string    `gorm:"size:255;not null" json:"fileName"`
	FilePath  string    `gorm:"size:512;not null" json:"filePath"`
	FileType  string    `gorm:"size:100" json:"fileType"`
	FileSize  int64     `json:"fileSize"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Attachment) TableName() string {
	return "message_attachments"
}

// Validate checks that exactly one of RecipientID or ChannelID is set
func (m *Message) Validate() error {
	if (m.RecipientID == nil) == (m.ChannelID == nil) {
		return fmt.Errorf("exactly one of RecipientID or ChannelID must be set")
	}
	return nil
}

/** -------------------- DTOs -------------------- */

// AttachmentInput is the client-supplied metadata for an attachment
type AttachmentInput struct {
	FileName string `json:"fileName" validate:"required,max=255"`
	FilePath string `json:"filePath" validate:"required,max=512"`
	FileType string `json:"fileType,omitempty" validate:"max=100"`
	FileSize int64  `json:"fileSize,omitempty" validate:"gte=0"`
}

// MessageView is a persisted message joined with its sender's display
// fields. It is the payload of direct_message, message_sent and
// channel_message events.
type MessageView struct {
	ID          uint         `json:"id"`
	Content     string       `json:"content"`
	SenderID    uint         `json:"senderId"`
	RecipientID *uint        `json:"recipientId,omitempty"`
	ChannelID   *uint        `json:"channelId,omitempty"`
	IsRead      bool         `json:"isRead"`
	CreatedAt   time.Time    `json:"createdAt"`
	Username    string       `json:"username"`
	Avatar      string       `json:"avatar"`
	Attachments []Attachment `json:"attachments" gorm:"-"`
}

// Kind reports whether the view is of a direct or a channel message
func (v *MessageView) Kind() MessageKind {
	if v.ChannelID != nil {
		return MessageKindChannel
	}
	return MessageKindDirect
}
