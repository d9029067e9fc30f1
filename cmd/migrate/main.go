package main

import (
	"log"

	"realtime-chat/internal/config"
	"realtime-chat/internal/database"
	"realtime-chat/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logg := logger.New(cfg.Log.Level, cfg.Log.Format)

	logg.Info("Starting database migration...", "driver", cfg.Database.Driver)

	db, err := database.NewConnection(cfg.Database, logg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	logg.Info("Database migration completed successfully")
}
