package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub pushes the latest report to every connected websocket viewer
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	// done is closed when Run returns
	done   chan struct{}
	mutex  sync.RWMutex
	logger *zap.Logger
}

const (
	// pongWait is how long a viewer may stay silent before it is dropped
	pongWait   = 60 * time.Second
	pingPeriod = pongWait / 2
	writeWait  = 5 * time.Second
)

// NewHub returns a Hub, Run must be called to start it
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 1),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves client registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {

	defer close(h.done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("report viewer connected", zap.Int("viewers", h.ClientCount()))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("report viewer disconnected", zap.Int("viewers", h.ClientCount()))

		case message := <-h.broadcast:
			h.send(websocket.TextMessage, message)

		case <-ping.C:
			h.send(websocket.PingMessage, nil)
		}
	}
}

// send writes a message to every viewer and drops the ones that fail
func (h *Hub) send(messageType int, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))

		if err := client.WriteMessage(messageType, data); err != nil {
			h.logger.Warn("error sending to report viewer", zap.Error(err))
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Broadcast queues a message for all viewers.  If viewers are slower than
// the video the pending message is replaced so only the newest report is
// sent.
func (h *Hub) Broadcast(message []byte) {
	for {
		select {
		case h.broadcast <- message:
			return
		default:
		}

		// drop the stale message
		select {
		case <-h.broadcast:
		default:
		}
	}
}

// ClientCount returns the number of connected viewers
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and keeps it registered until the
// viewer goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	conn, err := upgrader.Upgrade(w, r, nil)

	if err != nil {
		h.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()

	// viewers only receive, reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
