package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"claimsight/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event is one feed message pushed to connected WebSocket clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload"`
}

// Feed broadcasts run events to WebSocket clients. Publishing never blocks;
// events are dropped when the broadcast channel is full.
type Feed struct {
	metrics   *metrics.Metrics
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	broadcast chan Event
	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewFeed(m *metrics.Metrics) *Feed {
	return &Feed{
		metrics:   m,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 100),
		stop:      make(chan struct{}),
	}
}

// Start launches the broadcaster goroutine.
func (f *Feed) Start() {
	f.startOnce.Do(func() {
		go f.broadcaster()
	})
}

// Stop signals the broadcaster and closes all client connections.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() {
		close(f.stop)

		f.clientsMu.Lock()
		for client := range f.clients {
			client.Close()
		}
		f.clients = make(map[*websocket.Conn]bool)
		f.clientsMu.Unlock()
	})
}

// Publish queues an event for broadcast. Drops the event when no broadcaster
// capacity is available.
func (f *Feed) Publish(kind string, payload any) {
	event := Event{Timestamp: time.Now().UTC(), Kind: kind, Payload: payload}
	select {
	case f.broadcast <- event:
	default:
	}
}

func (f *Feed) broadcaster() {
	for {
		select {
		case event := <-f.broadcast:
			f.broadcastToClients(event)
		case <-f.stop:
			return
		}
	}
}

func (f *Feed) broadcastToClients(event Event) {
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal feed event")
		return
	}

	for client := range f.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Msg("Failed to send message to feed client")
			client.Close()
			delete(f.clients, client)
			f.metrics.FeedClients.Dec()
		}
	}
}

// handleWebSocket upgrades the connection and keeps it registered until the
// client disconnects.
func (f *Feed) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade feed connection")
		return
	}
	defer conn.Close()

	f.clientsMu.Lock()
	f.clients[conn] = true
	f.clientsMu.Unlock()
	f.metrics.FeedClients.Inc()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	f.clientsMu.Lock()
	if _, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		f.metrics.FeedClients.Dec()
	}
	f.clientsMu.Unlock()
}
