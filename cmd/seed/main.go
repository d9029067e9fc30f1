package main

import (
	"context"
	"log"

	"realtime-chat/internal/config"
	"realtime-chat/internal/database"
	"realtime-chat/internal/models"
	"realtime-chat/internal/repositories"
	"realtime-chat/internal/services"
	"realtime-chat/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

const defaultPassword = "123456"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logg := logger.New(cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	logg.Info("Starting database seeding...")

	db, err := database.NewConnection(cfg.Database, logg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	userRepo := repositories.NewUserRepository(db)
	channelRepo := repositories.NewChannelRepository(db)
	tokens := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpirationTime)

	logg.Info("Creating users...")
	usernames := []string{"admin", "alice", "bob", "charlie"}
	users := make(map[string]*models.User, len(usernames))
	for _, name := range usernames {
		user, err := ensureUser(ctx, userRepo, name)
		if err != nil {
			logg.Error("Failed to seed user", "username", name, "error", err)
			continue
		}
		users[name] = user

		// tokens for trying the socket with CHAT_WS_REQUIRE_TOKEN on
		token, err := tokens.GenerateToken(user.ID, user.Username)
		if err != nil {
			logg.Warn("Failed to issue token", "username", name, "error", err)
			continue
		}
		logg.Info("Seeded user", "username", name, "id", user.ID, "token", token)
	}

	admin, ok := users["admin"]
	if !ok {
		log.Fatal("Admin user missing, cannot create channels")
	}

	logg.Info("Creating channels...")
	channels := map[string][]string{
		"general":     {"alice", "bob", "charlie"},
		"random":      {"alice", "bob"},
		"development": {"charlie"},
	}
	for name, members := range channels {
		channel := &models.Channel{Name: name, CreatedBy: admin.ID}
		if err := channelRepo.Create(ctx, channel); err != nil {
			logg.Warn("Failed to create channel", "channel", name, "error", err)
			continue
		}
		for _, member := range members {
			user, ok := users[member]
			if !ok {
				continue
			}
			if err := channelRepo.AddMember(ctx, channel.ID, user.ID, models.RoleMember); err != nil {
				logg.Warn("Failed to add member", "channel", name, "username", member, "error", err)
			}
		}
		logg.Info("Created channel", "channel", name, "id", channel.ID, "members", len(members)+1)
	}

	logg.Info("Database seeding completed")
}

func ensureUser(ctx context.Context, repo *repositories.UserRepository, username string) (*models.User, error) {
	email := username + "@chat.local"
	if existing, err := repo.FindByEmail(ctx, email); err == nil {
		return existing, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Status:   models.StatusOffline,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
