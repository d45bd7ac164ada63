package websocket

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

func TestBroadcastReachesConnectedClient(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, "u1")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(Event{Type: "rate_query.responded", EntityType: "rate_query", EntityID: "42"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "rate_query.responded", ev.Type)
	assert.Equal(t, "42", ev.EntityID)
	assert.False(t, ev.At.IsZero())
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Broadcast(Event{Type: "noop"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked with no running hub")
	}
}

func TestSendToDuringShutdown(t *testing.T) {
	hub := NewHub()
	c := &Client{hub: hub, ID: "c1", send: make(chan []byte, 1)}
	hub.clients[c.ID] = c

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	sent := make(chan struct{})
	go func() {
		defer close(sent)
		for i := 0; i < 1000; i++ {
			hub.SendTo(c.ID, Event{Type: "PONG"})
		}
	}()
	cancel()

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("SendTo blocked during shutdown")
	}
	<-hub.done
	assert.False(t, hub.SendTo(c.ID, Event{Type: "PONG"}), "client is gone after shutdown")
}
