package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"realtime-chat/internal/models"
)

// Dispatcher validates, persists and fans out the events of one connection
// at a time. Handle runs each event to completion; callers must not invoke
// it concurrently for the same Session.
type Dispatcher struct {
	store     Store
	registry  *Registry
	router    *ChannelRouter
	presence  *Presence
	publisher MessagePublisher
	signer    AttachmentSigner
	verifier  TokenVerifier
	log       *slog.Logger
}

func NewDispatcher(store Store, registry *Registry, router *ChannelRouter, presence *Presence, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		registry: registry,
		router:   router,
		presence: presence,
		log:      log,
	}
}

// Handle processes one event for s. Failures never escape: they become an
// error event on the originating connection.
func (d *Dispatcher) Handle(ctx context.Context, s *Session, ev Event) {
	if s.state == StateDisconnected {
		return
	}

	switch e := ev.(type) {
	case Authenticate:
		d.authenticate(ctx, s, e)
	case Disconnect:
		d.disconnect(ctx, s)
	case SendDirect:
		d.requireAuth(s, e, func(userID uint) { d.sendDirect(ctx, s, userID, e) })
	case SendChannel:
		d.requireAuth(s, e, func(userID uint) { d.sendChannel(ctx, s, userID, e) })
	case Typing:
		d.requireAuth(s, e, func(userID uint) { d.typing(s, userID, e) })
	case ReadReceipt:
		d.requireAuth(s, e, func(userID uint) { d.readReceipt(ctx, s, userID, e) })
	case JoinChannel:
		d.requireAuth(s, e, func(userID uint) { d.joinChannel(ctx, s, userID, e) })
	case LeaveChannel:
		d.requireAuth(s, e, func(uint) { d.leaveChannel(s, e) })
	default:
		d.fail(s, fmt.Errorf("%w: unsupported event %T", ErrInvalidEvent, ev), "Invalid message format")
	}
}

func (d *Dispatcher) requireAuth(s *Session, ev Event, next func(userID uint)) {
	userID, ok := s.UserID()
	if !ok {
		d.log.Debug("Rejected unauthenticated event", "clientID", s.conn.ID(), "event", ev.Type())
		d.fail(s, ErrUnauthenticated, "You are not authenticated")
		return
	}
	next(userID)
}

func (d *Dispatcher) authenticate(ctx context.Context, s *Session, e Authenticate) {
	if d.verifier != nil {
		tokenUser, err := d.verifier.VerifyToken(e.Token)
		if err != nil || tokenUser != e.UserID {
			d.log.Warn("Authentication rejected", "clientID", s.conn.ID(), "userID", e.UserID, "error", err)
			d.fail(s, ErrAuthFailed, "Authentication failed")
			return
		}
	}

	if current, ok := s.UserID(); ok {
		if current != e.UserID {
			d.fail(s, ErrAlreadyAuthenticated, "Connection is already authenticated")
			return
		}
		// same user again: refresh routing, no second presence announcement
		d.registry.Register(current, s.conn)
		d.subscribeAll(ctx, s, current)
		return
	}

	s.userID = e.UserID
	s.state = StateAuthenticated
	d.registry.Register(e.UserID, s.conn)
	d.subscribeAll(ctx, s, e.UserID)
	d.presence.MarkOnline(ctx, e.UserID)

	d.log.Info("User authenticated", "userID", e.UserID, "clientID", s.conn.ID())
}

func (d *Dispatcher) subscribeAll(ctx context.Context, s *Session, userID uint) {
	if _, err := d.router.SubscribeUserToTheirChannels(ctx, userID, s.conn); err != nil {
		d.log.Error("Failed to subscribe user to channels", "userID", userID, "clientID", s.conn.ID(), "error", err)
	}
}

func (d *Dispatcher) sendDirect(ctx context.Context, s *Session, senderID uint, e SendDirect) {
	recipientID := e.RecipientID
	msg := &models.Message{
		Content:     e.MessageData.Content,
		SenderID:    senderID,
		RecipientID: &recipientID,
		Attachments: toAttachments(e.MessageData.Attachments),
	}

	view, err := d.persist(ctx, msg)
	if err != nil {
		d.log.Error("Direct message error", "senderID", senderID, "recipientID", recipientID, "error", err)
		d.fail(s, err, "Failed to send message")
		return
	}

	if target, ok := d.registry.Lookup(recipientID); ok {
		if err := target.Send(NewEvent(EventDirectMessage, view)); err != nil {
			d.log.Debug("Direct delivery failed", "recipientID", recipientID, "clientID", target.ID(), "error", err)
		}
	}
	if err := s.conn.Send(NewEvent(EventMessageSent, view)); err != nil {
		d.log.Debug("Send confirmation failed", "senderID", senderID, "error", err)
	}

	d.publish(ctx, view)
}

func (d *Dispatcher) sendChannel(ctx context.Context, s *Session, senderID uint, e SendChannel) {
	if err := d.router.RequireMember(ctx, senderID, e.ChannelID); err != nil {
		if errors.Is(err, ErrNotAMember) {
			d.fail(s, err, "You are not a member of this channel")
			return
		}
		d.log.Error("Channel message error", "senderID", senderID, "channelID", e.ChannelID, "error", err)
		d.fail(s, err, "Failed to send message")
		return
	}

	channelID := e.ChannelID
	msg := &models.Message{
		Content:     e.MessageData.Content,
		SenderID:    senderID,
		ChannelID:   &channelID,
		Attachments: toAttachments(e.MessageData.Attachments),
	}

	view, err := d.persist(ctx, msg)
	if err != nil {
		d.log.Error("Channel message error", "senderID", senderID, "channelID", channelID, "error", err)
		d.fail(s, err, "Failed to send message")
		return
	}

	// the sender is in the group too; that echo is its confirmation
	n := d.router.Broadcast(channelID, NewEvent(EventChannelMessage, view), nil)
	d.log.Debug("Channel message broadcast", "channelID", channelID, "messageID", view.ID, "recipients", n)

	d.publish(ctx, view)
}

func (d *Dispatcher) typing(s *Session, userID uint, e Typing) {
	if e.ChannelID != nil && *e.ChannelID != 0 {
		channelID := *e.ChannelID
		d.router.Broadcast(channelID, NewEvent(EventTyping, TypingPayload{
			UserID:    userID,
			IsTyping:  e.IsTyping,
			ChannelID: &channelID,
		}), s.conn)
		return
	}

	if e.RecipientID == nil {
		return
	}
	// offline recipients just miss the signal
	target, ok := d.registry.Lookup(*e.RecipientID)
	if !ok {
		return
	}
	if err := target.Send(NewEvent(EventTyping, TypingPayload{UserID: userID, IsTyping: e.IsTyping})); err != nil {
		d.log.Debug("Typing delivery failed", "recipientID", *e.RecipientID, "error", err)
	}
}

func (d *Dispatcher) readReceipt(ctx context.Context, s *Session, readerID uint, e ReadReceipt) {
	if err := d.store.MarkMessageRead(ctx, e.MessageID); err != nil {
		d.log.Error("Message read error", "messageID", e.MessageID, "readerID", readerID, "error", err)
		d.fail(s, fmt.Errorf("%w: %v", ErrPersistence, err), "Failed to mark message as read")
		return
	}

	target, ok := d.registry.Lookup(e.SenderID)
	if !ok {
		return
	}
	if err := target.Send(NewEvent(EventMessageRead, ReadPayload{MessageID: e.MessageID, ReadBy: readerID})); err != nil {
		d.log.Debug("Read receipt delivery failed", "senderID", e.SenderID, "error", err)
	}
}

func (d *Dispatcher) joinChannel(ctx context.Context, s *Session, userID uint, e JoinChannel) {
	if err := d.router.SubscribeToChannel(ctx, userID, e.ChannelID, s.conn); err != nil {
		if errors.Is(err, ErrNotAMember) {
			d.fail(s, err, "You are not a member of this channel")
			return
		}
		d.log.Error("Join channel error", "userID", userID, "channelID", e.ChannelID, "error", err)
		d.fail(s, err, "Failed to join channel")
		return
	}
	if err := s.conn.Send(NewEvent(EventChannelJoined, ChannelPayload{ChannelID: e.ChannelID})); err != nil {
		d.log.Debug("Join confirmation failed", "userID", userID, "channelID", e.ChannelID, "error", err)
	}
}

func (d *Dispatcher) leaveChannel(s *Session, e LeaveChannel) {
	d.router.Unsubscribe(e.ChannelID, s.conn)
	if err := s.conn.Send(NewEvent(EventChannelLeft, ChannelPayload{ChannelID: e.ChannelID})); err != nil {
		d.log.Debug("Leave confirmation failed", "clientID", s.conn.ID(), "channelID", e.ChannelID, "error", err)
	}
}

func (d *Dispatcher) disconnect(ctx context.Context, s *Session) {
	userID, wasAuthenticated := s.UserID()
	s.state = StateDisconnected

	d.router.UnsubscribeAll(s.conn)
	if !wasAuthenticated {
		return
	}

	// a newer connection for the same user keeps them online
	if _, removed := d.registry.Unregister(s.conn); !removed {
		d.log.Debug("Stale connection closed", "userID", userID, "clientID", s.conn.ID())
		return
	}
	d.presence.MarkOffline(ctx, userID)
	d.log.Info("User disconnected", "userID", userID, "clientID", s.conn.ID())
}

// persist stores msg and prepares the view for delivery
func (d *Dispatcher) persist(ctx context.Context, msg *models.Message) (*models.MessageView, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	view, err := d.store.CreateMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if d.signer != nil && len(view.Attachments) > 0 {
		view.Attachments = d.signer.SignAttachments(ctx, view.Attachments)
	}
	return view, nil
}

func (d *Dispatcher) publish(ctx context.Context, view *models.MessageView) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.PublishMessage(ctx, view); err != nil {
		d.log.Warn("Failed to publish message event", "messageID", view.ID, "error", err)
	}
}

func (d *Dispatcher) fail(s *Session, err error, message string) {
	if sendErr := s.conn.Send(NewErrorEvent(errorCode(err), message)); sendErr != nil {
		d.log.Debug("Error event not delivered", "clientID", s.conn.ID(), "error", sendErr)
	}
}

func toAttachments(in []models.AttachmentInput) []models.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, models.Attachment{
			FileName: a.FileName,
			FilePath: a.FilePath,
			FileType: a.FileType,
			FileSize: a.FileSize,
		})
	}
	return out
}
