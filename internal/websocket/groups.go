package websocket

import (
	"sync"

	"github.com/samber/lo"
)

// GroupManager is the transport grouping primitive behind channel
// broadcasts. Groups is the in-process implementation.
type GroupManager interface {
	Join(channelID uint, conn Conn)
	Leave(channelID uint, conn Conn)
	LeaveAll(conn Conn) []uint
	Members(channelID uint) []Conn
	ChannelsOf(conn Conn) []uint
}

type Groups struct {
	mu       sync.RWMutex
	members  map[uint]map[string]Conn     // channel -> conn id -> conn
	channels map[string]map[uint]struct{} // conn id -> channels joined
}

func NewGroups() *Groups {
	return &Groups{
		members:  make(map[uint]map[string]Conn),
		channels: make(map[string]map[uint]struct{}),
	}
}

func (g *Groups) Join(channelID uint, conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.members[channelID] == nil {
		g.members[channelID] = make(map[string]Conn)
	}
	g.members[channelID][conn.ID()] = conn

	if g.channels[conn.ID()] == nil {
		g.channels[conn.ID()] = make(map[uint]struct{})
	}
	g.channels[conn.ID()][channelID] = struct{}{}
}

func (g *Groups) Leave(channelID uint, conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.leaveLocked(channelID, conn.ID())
}

// LeaveAll drops conn from every group and returns the channels it was in
func (g *Groups) LeaveAll(conn Conn) []uint {
	g.mu.Lock()
	defer g.mu.Unlock()

	joined := lo.Keys(g.channels[conn.ID()])
	for _, channelID := range joined {
		g.leaveLocked(channelID, conn.ID())
	}
	return joined
}

func (g *Groups) leaveLocked(channelID uint, connID string) {
	if set, ok := g.members[channelID]; ok {
		delete(set, connID)
		// no empty groups left behind
		if len(set) == 0 {
			delete(g.members, channelID)
		}
	}
	if set, ok := g.channels[connID]; ok {
		delete(set, channelID)
		if len(set) == 0 {
			delete(g.channels, connID)
		}
	}
}

func (g *Groups) Members(channelID uint) []Conn {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return lo.Values(g.members[channelID])
}

func (g *Groups) ChannelsOf(conn Conn) []uint {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return lo.Keys(g.channels[conn.ID()])
}
