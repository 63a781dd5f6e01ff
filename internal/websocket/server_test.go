package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

func dialTestServer(t *testing.T, server *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(server.HandleConnection))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	// Registration happens on the server goroutine after the handshake
	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if server.ClientCount() == 0 {
		t.Fatal("client never registered")
	}
	return conn
}

func TestServerBroadcast(t *testing.T) {
	server := NewServer(logger.Nop())
	conn := dialTestServer(t, server)

	server.Broadcast(&Message{
		Type: "segment",
		Data: map[string]interface{}{"text": "hello"},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if message.Type != "segment" {
		t.Errorf("expected type segment, got %q", message.Type)
	}
	if message.Data["text"] != "hello" {
		t.Errorf("expected text hello, got %v", message.Data)
	}
}

func TestServerClose(t *testing.T) {
	server := NewServer(logger.Nop())
	conn := dialTestServer(t, server)

	server.Close()
	if count := server.ClientCount(); count != 0 {
		t.Errorf("expected no clients after close, got %d", count)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
