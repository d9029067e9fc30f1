package websocket

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"realtime-chat/internal/models"

	"github.com/go-playground/validator/v10"
)

// EventType names a frame on the wire, in either direction
type EventType string

const (
	// inbound only
	EventAuthenticate EventType = "authenticate"
	EventJoinChannel  EventType = "join_channel"
	EventLeaveChannel EventType = "leave_channel"

	// both directions
	EventDirectMessage  EventType = "direct_message"
	EventChannelMessage EventType = "channel_message"
	EventTyping         EventType = "typing"
	EventMessageRead    EventType = "message_read"

	// outbound only
	EventMessageSent      EventType = "message_sent"
	EventUserStatusChange EventType = "user_status_change"
	EventError            EventType = "error"
	EventChannelJoined    EventType = "channel_joined"
	EventChannelLeft      EventType = "channel_left"
)

func (et EventType) String() string {
	return string(et)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is the raw inbound frame
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is the tagged union of everything a connection can ask the
// dispatcher to do. Disconnect is produced by the transport, never decoded.
type Event interface {
	Type() EventType
}

type Authenticate struct {
	UserID uint   `json:"userId" validate:"required"`
	Token  string `json:"token,omitempty"`
}

type MessageData struct {
	Content     string                   `json:"content" validate:"max=10000"`
	Attachments []models.AttachmentInput `json:"attachments,omitempty" validate:"max=10,dive"`
}

func (m MessageData) empty() bool {
	return strings.TrimSpace(m.Content) == "" && len(m.Attachments) == 0
}

type SendDirect struct {
	RecipientID uint        `json:"recipientId" validate:"required"`
	MessageData MessageData `json:"messageData"`
}

type SendChannel struct {
	ChannelID   uint        `json:"channelId" validate:"required"`
	MessageData MessageData `json:"messageData"`
}

// Typing targets a channel group or a single recipient. When both are
// given the channel wins.
type Typing struct {
	RecipientID *uint `json:"recipientId,omitempty"`
	ChannelID   *uint `json:"channelId,omitempty"`
	IsTyping    bool  `json:"isTyping"`
}

// ReadReceipt marks a message read and notifies SenderID, which is taken
// from the client as-is.
type ReadReceipt struct {
	MessageID uint `json:"messageId" validate:"required"`
	SenderID  uint `json:"senderId" validate:"required"`
}

type JoinChannel struct {
	ChannelID uint `json:"channelId" validate:"required"`
}

type LeaveChannel struct {
	ChannelID uint `json:"channelId" validate:"required"`
}

type Disconnect struct{}

func (Authenticate) Type() EventType { return EventAuthenticate }
func (SendDirect) Type() EventType   { return EventDirectMessage }
func (SendChannel) Type() EventType  { return EventChannelMessage }
func (Typing) Type() EventType       { return EventTyping }
func (ReadReceipt) Type() EventType  { return EventMessageRead }
func (JoinChannel) Type() EventType  { return EventJoinChannel }
func (LeaveChannel) Type() EventType { return EventLeaveChannel }
func (Disconnect) Type() EventType   { return "disconnect" }

// DecodeEvent parses and validates one inbound frame
func DecodeEvent(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	var ev Event
	var err error
	switch env.Type {
	case EventAuthenticate:
		ev, err = decodeInto[Authenticate](env.Data)
	case EventDirectMessage:
		var e SendDirect
		if e, err = decodeInto[SendDirect](env.Data); err == nil && e.MessageData.empty() {
			err = fmt.Errorf("%w: message has no content", ErrInvalidEvent)
		}
		ev = e
	case EventChannelMessage:
		var e SendChannel
		if e, err = decodeInto[SendChannel](env.Data); err == nil && e.MessageData.empty() {
			err = fmt.Errorf("%w: message has no content", ErrInvalidEvent)
		}
		ev = e
	case EventTyping:
		var e Typing
		if e, err = decodeInto[Typing](env.Data); err == nil && !e.hasTarget() {
			err = fmt.Errorf("%w: typing needs recipientId or channelId", ErrInvalidEvent)
		}
		ev = e
	case EventMessageRead:
		ev, err = decodeInto[ReadReceipt](env.Data)
	case EventJoinChannel:
		ev, err = decodeInto[JoinChannel](env.Data)
	case EventLeaveChannel:
		ev, err = decodeInto[LeaveChannel](env.Data)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, env.Type)
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeInto[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, fmt.Errorf("%w: missing data", ErrInvalidEvent)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := validate.Struct(v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return v, nil
}

func (t Typing) hasTarget() bool {
	return (t.ChannelID != nil && *t.ChannelID != 0) || (t.RecipientID != nil && *t.RecipientID != 0)
}

/** -------------------- OUTBOUND -------------------- */

// OutboundEvent is what gets serialized to a connection
type OutboundEvent struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

type TypingPayload struct {
	UserID    uint  `json:"userId"`
	IsTyping  bool  `json:"isTyping"`
	ChannelID *uint `json:"channelId"`
}

type ReadPayload struct {
	MessageID uint `json:"messageId"`
	ReadBy    uint `json:"readBy"`
}

type StatusPayload struct {
	UserID uint   `json:"userId"`
	Status string `json:"status"`
}

type ChannelPayload struct {
	ChannelID uint `json:"channelId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent stamps an outbound event with the current time
func NewEvent(t EventType, data interface{}) *OutboundEvent {
	return &OutboundEvent{Type: t, Data: data, Timestamp: time.Now().Unix()}
}

// NewErrorEvent creates an error event
func NewErrorEvent(code, message string) *OutboundEvent {
	return NewEvent(EventError, ErrorPayload{Code: code, Message: message})
}
