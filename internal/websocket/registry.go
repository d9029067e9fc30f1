package websocket

import (
	"sync"

	"github.com/samber/lo"
)

// Registry maps an authenticated user to the one connection that receives
// their direct deliveries. The last connection to register wins.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uint]Conn   // user -> current delivery target
	byConn map[string]uint // conn id -> user it registered as
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[uint]Conn),
		byConn: make(map[string]uint),
	}
}

// Register records conn as userID's delivery target, replacing any
// previous mapping.
func (r *Registry) Register(userID uint, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byUser[userID] = conn
	r.byConn[conn.ID()] = userID
}

// Unregister forgets conn. The user mapping is only removed when conn is
// still the registered target, so a stale disconnect cannot clear a newer
// session. It reports the user id and whether the mapping was removed.
func (r *Registry) Unregister(conn Conn) (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[conn.ID()]
	if !ok {
		return 0, false
	}
	delete(r.byConn, conn.ID())

	current, ok := r.byUser[userID]
	if !ok || current.ID() != conn.ID() {
		return userID, false
	}
	delete(r.byUser, userID)
	return userID, true
}

// Lookup returns the live connection for userID, if any
func (r *Registry) Lookup(userID uint) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byUser[userID]
	return conn, ok
}

// OnlineUsers returns the ids of every user with a registered connection
func (r *Registry) OnlineUsers() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.byUser)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser)
}

func (r *Registry) IsOnline(userID uint) bool {
	_, ok := r.Lookup(userID)
	return ok
}
