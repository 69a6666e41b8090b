package chat

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpetukhov/livetalks/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistry_HubPerEvent(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	h1 := r.Hub("ev-1")
	h2 := r.Hub("ev-2")

	assert.NotSame(t, h1, h2)
	assert.Same(t, h1, r.Hub("ev-1"))
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	h := r.Hub("ev-7")

	c1 := &Client{hub: h, send: make(chan []byte, 1)}
	c2 := &Client{hub: h, send: make(chan []byte, 1)}
	h.register <- c1
	h.register <- c2

	h.Broadcast(Message{EventID: "ev-7", Sender: "alice", Text: "hi"})

	for _, c := range []*Client{c1, c2} {
		select {
		case b := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(b, &msg))
			assert.Equal(t, "ev-7", msg.EventID)
			assert.Equal(t, "alice", msg.Sender)
			assert.Equal(t, "hi", msg.Text)
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	h := r.Hub("ev-3")

	c := &Client{hub: h, send: make(chan []byte, 1)}
	h.register <- c
	h.unregister <- c

	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "send channel must be closed after unregister")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHub_ServeRelaysBetweenConnections(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	h := r.Hub("ev-42")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		username := req.URL.Query().Get("user")
		require.NoError(t, h.Serve(w, req, username))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	alice, _, err := websocket.DefaultDialer.Dial(wsURL+"?user=alice", nil)
	require.NoError(t, err)
	defer alice.Close()

	bob, _, err := websocket.DefaultDialer.Dial(wsURL+"?user=bob", nil)
	require.NoError(t, err)
	defer bob.Close()

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("hello bob")))

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := bob.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(b, &msg))
	assert.Equal(t, "ev-42", msg.EventID)
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "hello bob", msg.Text)
}
