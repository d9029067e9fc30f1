package websocket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	x, y := newFakeConn("x"), newFakeConn("y")

	r.Register(1, x)
	r.Register(1, y)

	got, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "y", got.ID())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_StaleUnregisterKeepsNewerMapping(t *testing.T) {
	r := NewRegistry()
	x, y := newFakeConn("x"), newFakeConn("y")
	r.Register(1, x)
	r.Register(1, y)

	userID, removed := r.Unregister(x)
	assert.Equal(t, uint(1), userID)
	assert.False(t, removed)

	got, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "y", got.ID())

	userID, removed = r.Unregister(y)
	assert.Equal(t, uint(1), userID)
	assert.True(t, removed)
	_, ok = r.Lookup(1)
	assert.False(t, ok)
}

func TestRegistry_UnregisterUnknownConn(t *testing.T) {
	r := NewRegistry()
	r.Register(1, newFakeConn("x"))

	_, removed := r.Unregister(newFakeConn("nobody"))
	assert.False(t, removed)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_OnlineUsers(t *testing.T) {
	r := NewRegistry()
	r.Register(1, newFakeConn("a"))
	r.Register(2, newFakeConn("b"))
	r.Register(3, newFakeConn("c"))
	r.Unregister(newFakeConn("b"))

	assert.ElementsMatch(t, []uint{1, 3}, r.OnlineUsers())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := newFakeConn(fmt.Sprintf("conn-%d", i))
			r.Register(uint(i%5), conn)
			r.Lookup(uint(i % 5))
			r.Unregister(conn)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Len(), 5)
}
