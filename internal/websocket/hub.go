package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub owns every live transport connection and the process-scoped state
// the dispatcher routes through. One Hub per process.
type Hub struct {
	// Registered clients, authenticated or not
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	registry   *Registry
	groups     *Groups
	dispatcher *Dispatcher

	upgrader       websocket.Upgrader
	sendBufferSize int
	maxMessageSize int64

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.RWMutex
	log *slog.Logger
}

type Option func(*Hub)

func WithPresenceCache(cache PresenceCache) Option {
	return func(h *Hub) { h.dispatcher.presence.cache = cache }
}

func WithMessagePublisher(p MessagePublisher) Option {
	return func(h *Hub) { h.dispatcher.publisher = p }
}

func WithAttachmentSigner(s AttachmentSigner) Option {
	return func(h *Hub) { h.dispatcher.signer = s }
}

// WithTokenVerifier makes authenticate events carry a token for the claimed user
func WithTokenVerifier(v TokenVerifier) Option {
	return func(h *Hub) { h.dispatcher.verifier = v }
}

func WithSendBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBufferSize = n
		}
	}
}

func WithMaxMessageSize(n int64) Option {
	return func(h *Hub) {
		if n > 0 {
			h.maxMessageSize = n
		}
	}
}

// WithAllowedOrigins restricts upgrades to the given origins. Empty means any.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		}
	}
}

func NewHub(store Store, log *slog.Logger, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	hub := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		registry:   NewRegistry(),
		groups:     NewGroups(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendBufferSize: 256,
		maxMessageSize: 64 * 1024,
		ctx:            ctx,
		cancel:         cancel,
		log:            log,
	}

	router := NewChannelRouter(store, hub.groups, log)
	presence := NewPresence(store, hub, log)
	hub.dispatcher = NewDispatcher(store, hub.registry, router, presence, log)

	for _, opt := range opts {
		opt(hub)
	}
	return hub
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("Client registered", "clientID", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			h.log.Debug("Client unregistered", "clientID", client.id)

		case <-h.ctx.Done():
			h.log.Info("WebSocket hub shutting down")
			return
		}
	}
}

// Stop ends Run and closes every open connection
func (h *Hub) Stop() {
	h.cancel()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.close()
	}
}

// BroadcastAll sends evt to every live connection and returns how many
// accepted it.
func (h *Hub) BroadcastAll(evt *OutboundEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients {
		if err := client.Send(evt); err == nil {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and starts the client's pumps
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade WebSocket connection", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(h, conn)
	h.log.Info("New WebSocket connection established", "clientID", client.id, "remote", r.RemoteAddr)

	select {
	case h.register <- client:
	case <-time.After(5 * time.Second):
		h.log.Error("Timeout sending registration request", "clientID", client.id)
		conn.Close()
		return
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
