package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"realtime-chat/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v uint) *uint { return &v }

func TestConversationKey(t *testing.T) {
	assert.Equal(t, "channel:9", ConversationKey(&models.MessageView{SenderID: 1, ChannelID: ptr(9)}))
	// both directions of a direct conversation share a key
	assert.Equal(t, "direct:2:5", ConversationKey(&models.MessageView{SenderID: 5, RecipientID: ptr(2)}))
	assert.Equal(t, "direct:2:5", ConversationKey(&models.MessageView{SenderID: 2, RecipientID: ptr(5)}))
}

func TestMessagePublisher_PublishMessage(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "chat.messages" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "channel:3" {
			return errors.New("wrong key " + string(key))
		}
		value, _ := msg.Value.Encode()
		var evt MessageEvent
		if err := json.Unmarshal(value, &evt); err != nil {
			return err
		}
		if evt.MessageID != 11 || evt.Kind != models.MessageKindChannel || evt.AttachmentCount != 1 {
			return errors.New("unexpected event payload")
		}
		return nil
	})
	pub := NewMessagePublisher(producer, "chat.messages", slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := pub.PublishMessage(context.Background(), &models.MessageView{
		ID:          11,
		SenderID:    1,
		ChannelID:   ptr(3),
		Content:     "hi",
		Attachments: []models.Attachment{{FileName: "a.png"}},
	})

	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestMessagePublisher_PublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	pub := NewMessagePublisher(producer, "chat.messages", slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := pub.PublishMessage(context.Background(), &models.MessageView{ID: 1, SenderID: 1, RecipientID: ptr(2)})

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}
