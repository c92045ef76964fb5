package websocket

import (
	"sync"
	"testing"
	"time"

	"kumpul/server/internal/docstore"
	"kumpul/server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	hub := NewHub(store.New(docstore.NewMemoryStore()))
	go hub.Run()
	return hub
}

// Subscription callbacks deliver snapshots from their own goroutines, so
// SendMessage races the hub's teardown of the same client. A delivery
// landing mid-teardown must be dropped, not crash the process.
func TestSendDuringTeardownDoesNotPanic(t *testing.T) {
	hub := newTestHub()

	for i := 0; i < 50; i++ {
		client := NewClient("user-1", "#USER-100", nil, hub)
		hub.Register <- client

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 300; j++ {
				client.SendMessage(WSMessage{Type: EventMeetupSnapshot, Timestamp: time.Now()})
			}
		}()

		hub.Unregister <- client
		wg.Wait()
	}
}

// Registering a second connection for the same user tears the first one
// down; deliveries still in flight on the old connection must be dropped
// the same way.
func TestReplaceConnectionClosesOldClient(t *testing.T) {
	hub := newTestHub()

	old := NewClient("user-1", "#USER-100", nil, hub)
	hub.Register <- old

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 300; j++ {
			old.SendMessage(WSMessage{Type: EventMeetupSnapshot, Timestamp: time.Now()})
		}
	}()

	replacement := NewClient("user-1", "#USER-100", nil, hub)
	hub.Register <- replacement
	wg.Wait()

	// The old client is closed; further sends are silent no-ops
	require.NoError(t, old.SendMessage(WSMessage{Type: EventMeetupSnapshot}))

	require.Eventually(t, func() bool {
		return hub.IsUserOnline("user-1")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.GetOnlineCount())
}

func TestOnlinePresenceTracksRegistration(t *testing.T) {
	hub := newTestHub()

	client := NewClient("user-1", "#USER-100", nil, hub)
	hub.Register <- client

	require.Eventually(t, func() bool {
		return hub.IsUserOnline("user-1")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, hub.GetOnlineUsers(), "user-1")

	hub.Unregister <- client
	require.Eventually(t, func() bool {
		return !hub.IsUserOnline("user-1")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.GetOnlineCount())
}
