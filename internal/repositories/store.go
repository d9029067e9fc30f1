package repositories

import "gorm.io/gorm"

// Store is the gorm-backed persistent store the real-time layer runs on
type Store struct {
	*UserRepository
	*ChannelRepository
	*MessageRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		UserRepository:    NewUserRepository(db),
		ChannelRepository: NewChannelRepository(db),
		MessageRepository: NewMessageRepository(db),
	}
}
