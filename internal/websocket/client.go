package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

// Client is one gorilla websocket connection. readPump feeds the
// dispatcher one event at a time; writePump drains the send queue.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	session *Session

	send       chan []byte
	sendMu     sync.Mutex
	sendClosed bool

	ctx    context.Context
	cancel context.CancelFunc
	closed int32 // atomic flag to track if client is closed
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)

	c := &Client{
		id:     uuid.New().String(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.sendBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
	c.session = NewSession(c)
	return c
}

func (c *Client) ID() string {
	return c.id
}

// Send queues evt without blocking. A full queue means the peer is too
// slow; the queue is closed and the connection torn down.
func (c *Client) Send(evt *OutboundEvent) error {
	if c.isClosed() {
		return ErrClientDisconnected
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return ErrClientDisconnected
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.hub.log.Warn("Send buffer full, closing client", "clientID", c.id)
		c.closeSendLocked()
		return ErrClientDisconnected
	}
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// close marks the client as closed and unblocks both pumps
func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
		c.conn.Close()
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.closeSendLocked()
}

func (c *Client) closeSendLocked() {
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		// offline status must still be written during shutdown
		c.hub.dispatcher.Handle(context.WithoutCancel(c.hub.ctx), c.session, Disconnect{})

		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		case <-time.After(5 * time.Second):
			c.hub.log.Warn("Timeout sending unregister request", "clientID", c.id)
		}

		c.closeSend()
		c.close()
	}()

	c.conn.SetReadLimit(c.hub.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("WebSocket error", "clientID", c.id, "error", err)
			} else {
				c.hub.log.Debug("WebSocket connection closed", "clientID", c.id, "error", err)
			}
			return
		}

		ev, err := DecodeEvent(raw)
		if err != nil {
			c.hub.log.Debug("Failed to decode event", "clientID", c.id, "error", err)
			if err := c.Send(NewErrorEvent(CodeInvalidMessage, "Invalid message format")); err != nil {
				c.hub.log.Debug("Error event not delivered", "clientID", c.id, "error", err)
			}
			continue
		}

		c.hub.dispatcher.Handle(c.hub.ctx, c.session, ev)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// unblocks readPump if the write side failed first
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.hub.log.Debug("Error writing message", "clientID", c.id, "error", err)
				}
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug("Error sending ping", "clientID", c.id, "error", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
