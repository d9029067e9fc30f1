package repositories

import (
	"context"
	"fmt"
	"testing"

	"realtime-chat/internal/database"
	"realtime-chat/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@chat.test", username),
		Password: "hash",
		Avatar:   username + ".png",
		Status:   models.StatusOffline,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func seedChannel(t *testing.T, db *gorm.DB, name string, owner *models.User, members ...*models.User) *models.Channel {
	t.Helper()
	ctx := context.Background()
	repo := NewChannelRepository(db)
	channel := &models.Channel{Name: name, CreatedBy: owner.ID}
	require.NoError(t, repo.Create(ctx, channel))
	for _, m := range members {
		require.NoError(t, repo.AddMember(ctx, channel.ID, m.ID, models.RoleMember))
	}
	return channel
}

func ptr(v uint) *uint { return &v }
