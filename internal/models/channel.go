package models

import (
	"time"

	"gorm.io/gorm"
)

// Member roles inside a channel
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

/** --------------------ENTITIES-------------------- */
// Channel is a named group conversation
type Channel struct {
	gorm.Model
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `gorm:"not null;default:false" json:"isPrivate"`
	CreatedBy   uint   `gorm:"not null" json:"createdBy"`

	Members []ChannelMember `gorm:"foreignKey:ChannelID" json:"members,omitempty"`
}

// ChannelMember is one row of channel_members. A user may send to and
// subscribe to a channel only while such a row exists.
type ChannelMember struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ChannelID uint      `gorm:"not null;uniqueIndex:idx_channel_member" json:"channelId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_channel_member;index" json:"userId"`
	Role      string    `gorm:"type:varchar(10);not null;default:'member'" json:"role"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

func (ChannelMember) TableName() string {
	return "channel_members"
}
