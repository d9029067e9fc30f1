package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
)

// MessageReader is the part of kafka-go's Reader the consumer uses
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

func NewReader(brokers []string, topic, groupID string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// MessageConsumer reads message events and hands each to a handler
type MessageConsumer struct {
	reader MessageReader
	log    *slog.Logger
}

func NewMessageConsumer(reader MessageReader, log *slog.Logger) *MessageConsumer {
	return &MessageConsumer{reader: reader, log: log}
}

// Run blocks until ctx is done or the reader fails. Records that do not
// decode are logged and skipped.
func (c *MessageConsumer) Run(ctx context.Context, handle func(key string, evt MessageEvent)) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read message event: %w", err)
		}

		var evt MessageEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			c.log.Warn("Skipping undecodable message event", "partition", msg.Partition, "offset", msg.Offset, "error", err)
			continue
		}
		handle(string(msg.Key), evt)
	}
}
