package repositories

import (
	"context"

	"realtime-chat/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db}
}

// Create inserts the channel and makes its creator an admin member
func (r *ChannelRepository) Create(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.ChannelMember{
			ChannelID: channel.ID,
			UserID:    channel.CreatedBy,
			Role:      models.RoleAdmin,
		}).Error
	})
}

// AddMember is idempotent on (channel, user)
func (r *ChannelRepository) AddMember(ctx context.Context, channelID, userID uint, role string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ChannelMember{ChannelID: channelID, UserID: userID, Role: role}).Error
}

func (r *ChannelRepository) ListChannelIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ChannelMember{}).
		Joins("JOIN channels ON channels.id = channel_members.channel_id AND channels.deleted_at IS NULL").
		Where("channel_members.user_id = ?", userID).
		Pluck("channel_members.channel_id", &ids).Error
	return ids, err
}

func (r *ChannelRepository) IsChannelMember(ctx context.Context, channelID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	return count > 0, err
}
