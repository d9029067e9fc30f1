package websocket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func memberIDs(g GroupManager, channelID uint) []string {
	var ids []string
	for _, c := range g.Members(channelID) {
		ids = append(ids, c.ID())
	}
	return ids
}

func TestGroups_JoinLeave(t *testing.T) {
	g := NewGroups()
	a, b := newFakeConn("a"), newFakeConn("b")

	g.Join(1, a)
	g.Join(1, b)
	g.Join(2, a)
	g.Join(1, a) // idempotent

	assert.ElementsMatch(t, []string{"a", "b"}, memberIDs(g, 1))
	assert.ElementsMatch(t, []uint{1, 2}, g.ChannelsOf(a))

	g.Leave(1, a)
	assert.ElementsMatch(t, []string{"b"}, memberIDs(g, 1))
	assert.ElementsMatch(t, []uint{2}, g.ChannelsOf(a))

	// leaving a group you are not in is a no-op
	g.Leave(3, a)
	assert.ElementsMatch(t, []uint{2}, g.ChannelsOf(a))
}

func TestGroups_LeaveAllCleansUpEmptyGroups(t *testing.T) {
	g := NewGroups()
	a, b := newFakeConn("a"), newFakeConn("b")
	g.Join(1, a)
	g.Join(2, a)
	g.Join(2, b)

	left := g.LeaveAll(a)

	assert.ElementsMatch(t, []uint{1, 2}, left)
	assert.Empty(t, g.ChannelsOf(a))
	assert.Empty(t, g.Members(1))
	assert.ElementsMatch(t, []string{"b"}, memberIDs(g, 2))
	assert.NotContains(t, g.members, uint(1))
	assert.NotContains(t, g.channels, "a")
}

func TestChannelRouter_BroadcastExcludesAndCounts(t *testing.T) {
	store := newFakeStore()
	g := NewGroups()
	router := NewChannelRouter(store, g, discardLogger())
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	c.broken = true
	for _, conn := range []Conn{a, b, c} {
		g.Join(9, conn)
	}

	n := router.Broadcast(9, NewEvent(EventTyping, nil), a)

	assert.Equal(t, 1, n)
	assert.Zero(t, a.count())
	assert.Equal(t, 1, b.count())
}

func TestChannelRouter_SubscribeUserToTheirChannels(t *testing.T) {
	store := newFakeStore()
	store.addMember(1, 7)
	store.addMember(2, 7)
	store.addMember(3, 8)
	g := NewGroups()
	router := NewChannelRouter(store, g, discardLogger())
	conn := newFakeConn("a")

	joined, err := router.SubscribeUserToTheirChannels(context.Background(), 7, conn)

	assert.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2}, joined)
	assert.ElementsMatch(t, []uint{1, 2}, g.ChannelsOf(conn))

	store.memberErr = errStoreDown
	_, err = router.SubscribeUserToTheirChannels(context.Background(), 7, newFakeConn("b"))
	assert.ErrorIs(t, err, ErrPersistence)
}
