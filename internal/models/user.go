package models

import (
	"time"

	"gorm.io/gorm"
)

// Presence status values stored in users.status
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

/** --------------------ENTITIES-------------------- */
// User represents the user entity
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `json:"-"` // bcrypt hash, never serialized
	Avatar   string `json:"avatar,omitempty"`

	Status     string     `gorm:"type:varchar(10);not null;default:'offline'" json:"status"`
	LastActive *time.Time `json:"lastActive,omitempty"`
}

/** -------------------- DTOs -------------------- */

// UserStatusResponse is the presence view returned by the presence endpoint
type UserStatusResponse struct {
	UserID uint   `json:"userId"`
	Status string `json:"status"`
}
