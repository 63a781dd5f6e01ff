// Package websocket pushes live transcription events to subscribed clients.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/metrics"
	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size; clients only speak, never command
	maxMessageSize = 512

	// Per-client outbound buffer before the client is considered slow
	sendBufferSize = 256
)

// Message is one event pushed to connected clients
type Message struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// Server is a broadcast hub for websocket subscribers. Every connected
// client receives every broadcast message; clients that cannot keep up are
// disconnected rather than allowed to stall the sender.
type Server struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer creates a new websocket hub
func NewServer(log *logger.Logger) *Server {
	return &Server{
		logger: log.Named("websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// HandleConnection upgrades an HTTP request to a websocket subscription
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		server: s,
	}
	s.register(c)

	go c.writePump()
	go c.readPump()
}

// Broadcast pushes a message to every connected client
func (s *Server) Broadcast(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		s.logger.Error("Failed to encode websocket message", logger.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Warn("Dropping slow websocket client")
			s.dropLocked(c)
		}
	}
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		s.dropLocked(c)
		c.conn.Close()
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	metrics.DefaultMetrics.WebsocketClients.Inc()
	s.logger.Debug("Websocket client connected", logger.Int("clients", count))
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(c)
}

// dropLocked removes a client from the hub. Callers hold the hub mutex.
func (s *Server) dropLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	metrics.DefaultMetrics.WebsocketClients.Dec()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.server.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Debug("Websocket read ended", logger.Error(err))
			}
			break
		}
	}
}
