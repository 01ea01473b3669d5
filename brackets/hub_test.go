package brackets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoom = "tournament_t1"

// newHubServer upgrades every request into testRoom and reports each
// finished Serve call on served.
func newHubServer(t *testing.T, h *Hub) (string, <-chan struct{}) {
	t.Helper()
	served := make(chan struct{}, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(NewClient(h, conn, testRoom))
		served <- struct{}{}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), served
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitServed(t *testing.T, served <-chan struct{}) {
	t.Helper()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestHub_BroadcastReachesRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(nil)
	go h.Run(ctx)

	url, served := newHubServer(t, h)
	conn := dial(t, url)
	waitServed(t, served)
	require.Eventually(t, func() bool { return h.RoomSize(testRoom) == 1 }, 2*time.Second, 10*time.Millisecond)

	h.BroadcastToRoom(testRoom, Event{Type: EventVoteRecorded, Payload: map[string]string{"winner_id": "a"}})
	h.BroadcastToRoom("tournament_other", Event{Type: EventVoteRecorded})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type    string            `json:"type"`
		RoomID  string            `json:"room_id"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventVoteRecorded, ev.Type)
	assert.Equal(t, testRoom, ev.RoomID)
	assert.Equal(t, "a", ev.Payload["winner_id"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.RoomSize(testRoom) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StoppedHubDisconnectsClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil)
	go h.Run(ctx)

	url, served := newHubServer(t, h)
	live := dial(t, url)
	waitServed(t, served)
	require.Eventually(t, func() bool { return h.RoomSize(testRoom) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Zero(t, h.RoomSize(testRoom))

	require.NoError(t, live.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := live.ReadMessage()
	assert.Error(t, err, "clients are closed when the hub stops")

	late := dial(t, url)
	waitServed(t, served)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.Error(t, err, "a stopped hub refuses new clients")

	// Broadcasting to a stopped hub is a no-op.
	h.BroadcastToRoom(testRoom, Event{Type: EventVoteRecorded})
}
