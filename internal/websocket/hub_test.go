package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := testHub()

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("clients = %d, want 2", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("clients = %d, want 1", got)
	}

	// Unregistering twice must not panic.
	hub.Unregister(c1)
	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("clients = %d, want 0", got)
	}
}

func TestNotifyReachesAllClients(t *testing.T) {
	hub := testHub()
	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	hub.Notify("token", "used", 7, map[string]any{"token_number": "TOK-250401-001"})

	for _, c := range []*Client{c1, c2} {
		select {
		case raw := <-c.send:
			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if msg.Type != "token_used" || msg.ID != 7 {
				t.Errorf("message = %+v, want token_used id 7", msg)
			}
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestNotifyDropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	c := mockClient(hub)
	hub.Register(c)

	// Fill the buffer and send one more; the overflow is dropped,
	// not blocked on.
	for i := 0; i < sendBufferSize+1; i++ {
		hub.Notify("wallet", "credited", int64(i), nil)
	}
	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}
}
