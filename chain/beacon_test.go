package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

func newTestBeaconServer(t *testing.T, events []headEvent) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, e := range events {
			b, _ := json.Marshal(e)
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
		// Keep the connection open briefly so the client can read
		// everything before the handler returns and closes it.
		time.Sleep(100 * time.Millisecond)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestSubscribeStreamsDecodedHeads(t *testing.T) {
	server := newTestBeaconServer(t, []headEvent{
		{Slot: 100, BlockHash: "0x" + strings.Repeat("ab", 32), ForkVersion: "0x01020304"},
		{Slot: 101, BlockHash: "0x" + strings.Repeat("cd", 32), ForkVersion: "0x01020304"},
	})

	client := NewBeaconClient(wsURL(server.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	heads, err := client.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}

	first := <-heads
	if first.Slot != 100 {
		t.Fatalf("expected slot 100, got %d", first.Slot)
	}
	second := <-heads
	if second.Slot != 101 {
		t.Fatalf("expected slot 101, got %d", second.Slot)
	}
}

func TestSubscribeFailsOnUnreachableServer(t *testing.T) {
	client := NewBeaconClient("ws://127.0.0.1:1/does-not-exist")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := client.Subscribe(ctx); err == nil {
		t.Fatal("expected dial error for unreachable server")
	}
}

func TestHeadEventToHeadRejectsMalformedBlockHash(t *testing.T) {
	e := headEvent{Slot: 1, BlockHash: "not-hex", ForkVersion: "0x01020304"}
	if _, err := e.toHead(); err == nil {
		t.Fatal("expected error for malformed block hash")
	}
}

func TestHeadEventToHeadRejectsWrongForkVersionLength(t *testing.T) {
	e := headEvent{Slot: 1, BlockHash: "0x" + strings.Repeat("ab", 32), ForkVersion: "0x0102"}
	if _, err := e.toHead(); err == nil {
		t.Fatal("expected error for short fork version")
	}
}
