package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"realtime-chat/internal/models"

	"github.com/IBM/sarama"
)

// MessageEvent is the record written for every persisted message
type MessageEvent struct {
	MessageID       uint               `json:"messageId"`
	Kind            models.MessageKind `json:"kind"`
	SenderID        uint               `json:"senderId"`
	RecipientID     *uint              `json:"recipientId,omitempty"`
	ChannelID       *uint              `json:"channelId,omitempty"`
	Content         string             `json:"content"`
	AttachmentCount int                `json:"attachmentCount"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// ConversationKey groups a direct pair or a channel onto one partition
func ConversationKey(view *models.MessageView) string {
	if view.ChannelID != nil {
		return fmt.Sprintf("channel:%d", *view.ChannelID)
	}
	a, b := view.SenderID, uint(0)
	if view.RecipientID != nil {
		b = *view.RecipientID
	}
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("direct:%d:%d", a, b)
}

// MessagePublisher writes message events to a Kafka topic
type MessagePublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

func NewMessagePublisher(producer sarama.SyncProducer, topic string, log *slog.Logger) *MessagePublisher {
	return &MessagePublisher{producer: producer, topic: topic, log: log}
}

func (p *MessagePublisher) PublishMessage(ctx context.Context, view *models.MessageView) error {
	payload, err := json.Marshal(MessageEvent{
		MessageID:       view.ID,
		Kind:            view.Kind(),
		SenderID:        view.SenderID,
		RecipientID:     view.RecipientID,
		ChannelID:       view.ChannelID,
		Content:         view.Content,
		AttachmentCount: len(view.Attachments),
		CreatedAt:       view.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal message event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ConversationKey(view)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish message %d: %w", view.ID, err)
	}
	p.log.Debug("Message event published", "messageID", view.ID, "partition", partition, "offset", offset)
	return nil
}

func (p *MessagePublisher) Close() error {
	return p.producer.Close()
}
