package repositories

import (
	"context"
	"fmt"

	"realtime-chat/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db}
}

// CreateMessage stores msg with its attachments in one transaction and
// returns it joined with the sender's username and avatar.
func (r *MessageRepository) CreateMessage(ctx context.Context, msg *models.Message) (*models.MessageView, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	var view models.MessageView
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		return tx.Table("messages").
			Select("messages.id, messages.content, messages.sender_id, messages.recipient_id, " +
				"messages.channel_id, messages.is_read, messages.created_at, users.username, users.avatar").
			Joins("JOIN users ON users.id = messages.sender_id").
			Where("messages.id = ?", msg.ID).
			Take(&view).Error
	})
	if err != nil {
		return nil, err
	}

	view.Attachments = msg.Attachments
	if view.Attachments == nil {
		view.Attachments = []models.Attachment{}
	}
	return &view, nil
}

// MarkMessageRead sets is_read. Marking twice is not an error.
func (r *MessageRepository) MarkMessageRead(ctx context.Context, messageID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("is_read", true).Error
}
