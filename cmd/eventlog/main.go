package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"realtime-chat/internal/adapters/kafka"
	"realtime-chat/internal/config"
	"realtime-chat/pkg/logger"
)

// eventlog tails the message event topic and logs one line per message
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logg := logger.New(cfg.Log.Level, cfg.Log.Format)

	if !cfg.Kafka.Enabled() {
		log.Fatal("KAFKA_BROKERS is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := kafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	consumer := kafka.NewMessageConsumer(reader, logg)

	logg.Info("Tailing message events", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	err = consumer.Run(ctx, func(key string, evt kafka.MessageEvent) {
		logg.Info("Message",
			"conversation", key,
			"messageID", evt.MessageID,
			"kind", evt.Kind,
			"senderID", evt.SenderID,
			"attachments", evt.AttachmentCount,
			"createdAt", evt.CreatedAt,
		)
	})
	if err != nil {
		logg.Error("Event log stopped", "error", err)
		os.Exit(1)
	}
}
