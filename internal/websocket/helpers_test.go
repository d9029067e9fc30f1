package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"realtime-chat/internal/models"

	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn records every event sent to it
type fakeConn struct {
	id     string
	mu     sync.Mutex
	events []*OutboundEvent
	broken bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(evt *OutboundEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return ErrClientDisconnected
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *fakeConn) received(t EventType) []*OutboundEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*OutboundEvent
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

type statusUpdate struct {
	UserID uint
	Status string
}

// fakeStore is an in-memory Store
type fakeStore struct {
	mu        sync.Mutex
	members   map[uint]map[uint]bool // channel -> user
	messages  []models.Message
	reads     []uint
	statuses  []statusUpdate
	nextID    uint
	createErr error
	memberErr error
	readErr   error
	statusErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: make(map[uint]map[uint]bool)}
}

func (s *fakeStore) addMember(channelID uint, userIDs ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[channelID] == nil {
		s.members[channelID] = make(map[uint]bool)
	}
	for _, id := range userIDs {
		s.members[channelID][id] = true
	}
}

func (s *fakeStore) ListChannelIDsByUser(_ context.Context, userID uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberErr != nil {
		return nil, s.memberErr
	}
	var out []uint
	for channelID, users := range s.members {
		if users[userID] {
			out = append(out, channelID)
		}
	}
	return out, nil
}

func (s *fakeStore) IsChannelMember(_ context.Context, channelID, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberErr != nil {
		return false, s.memberErr
	}
	return s.members[channelID][userID], nil
}

func (s *fakeStore) CreateMessage(_ context.Context, msg *models.Message) (*models.MessageView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	msg.ID = s.nextID
	msg.CreatedAt = time.Now()
	for i := range msg.Attachments {
		msg.Attachments[i].ID = uint(i + 1)
		msg.Attachments[i].MessageID = msg.ID
	}
	s.messages = append(s.messages, *msg)
	return &models.MessageView{
		ID:          msg.ID,
		Content:     msg.Content,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		ChannelID:   msg.ChannelID,
		CreatedAt:   msg.CreatedAt,
		Username:    fmt.Sprintf("user-%d", msg.SenderID),
		Attachments: append([]models.Attachment(nil), msg.Attachments...),
	}, nil
}

func (s *fakeStore) MarkMessageRead(_ context.Context, messageID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return s.readErr
	}
	s.reads = append(s.reads, messageID)
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].IsRead = true
		}
	}
	return nil
}

func (s *fakeStore) UpdateUserStatus(_ context.Context, userID uint, status string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return s.statusErr
	}
	s.statuses = append(s.statuses, statusUpdate{UserID: userID, Status: status})
	return nil
}

func (s *fakeStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *fakeStore) statusUpdates() []statusUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]statusUpdate(nil), s.statuses...)
}

// everyone is a Broadcaster over all connections opened in a harness
type everyone struct {
	mu    sync.Mutex
	conns []*fakeConn
}

func (e *everyone) BroadcastAll(evt *OutboundEvent) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.conns {
		if c.Send(evt) == nil {
			n++
		}
	}
	return n
}

type harness struct {
	store      *fakeStore
	registry   *Registry
	groups     *Groups
	everyone   *everyone
	presence   *Presence
	dispatcher *Dispatcher
}

func newHarness() *harness {
	h := &harness{
		store:    newFakeStore(),
		registry: NewRegistry(),
		groups:   NewGroups(),
		everyone: &everyone{},
	}
	log := discardLogger()
	router := NewChannelRouter(h.store, h.groups, log)
	h.presence = NewPresence(h.store, h.everyone, log)
	h.dispatcher = NewDispatcher(h.store, h.registry, router, h.presence, log)
	return h
}

func (h *harness) connect(id string) (*fakeConn, *Session) {
	conn := newFakeConn(id)
	h.everyone.mu.Lock()
	h.everyone.conns = append(h.everyone.conns, conn)
	h.everyone.mu.Unlock()
	return conn, NewSession(conn)
}

// login opens a connection, authenticates it and clears the events that
// authentication produced on every connection.
func (h *harness) login(t *testing.T, id string, userID uint) (*fakeConn, *Session) {
	t.Helper()
	conn, s := h.connect(id)
	h.handle(s, Authenticate{UserID: userID})
	got, ok := s.UserID()
	require.True(t, ok)
	require.Equal(t, userID, got)
	h.resetAll()
	return conn, s
}

func (h *harness) handle(s *Session, ev Event) {
	h.dispatcher.Handle(context.Background(), s, ev)
}

func (h *harness) resetAll() {
	h.everyone.mu.Lock()
	defer h.everyone.mu.Unlock()
	for _, c := range h.everyone.conns {
		c.reset()
	}
}

func ptr[T any](v T) *T {
	return &v
}

func requireError(t *testing.T, conn *fakeConn, code string) ErrorPayload {
	t.Helper()
	errs := conn.received(EventError)
	require.Len(t, errs, 1)
	payload, ok := errs[0].Data.(ErrorPayload)
	require.True(t, ok)
	require.Equal(t, code, payload.Code)
	return payload
}
