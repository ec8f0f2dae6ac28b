package gateway

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/domonhunt/internal/model"
)

// frame is one event as delivered to clients. SSE writes the name and data,
// websocket sessions write the data alone
type frame struct {
	event string
	data  []byte
}

// Hub fans out events to the clients watching a single channel
type Hub struct {
	channel model.ChannelID
	clients map[*Client]bool
	closed  bool
	mu      sync.RWMutex
	logger  *slog.Logger

	unregister chan *Client
	broadcast  chan frame
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a hub for a channel
func NewHub(channel model.ChannelID, logger *slog.Logger) *Hub {
	return &Hub{
		channel:    channel,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("channel", string(channel))),
		unregister: make(chan *Client),
		broadcast:  make(chan frame, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("hub started")
	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("client unregistered",
					slog.String("subscriber", client.subscriber),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", count))
			} else {
				h.mu.Unlock()
			}

		case f := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- f:
				default:
					dropped++
				}
			}
			sent := len(h.clients) - dropped
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("broadcast partial failure, client buffers full",
					slog.String("event", f.event),
					slog.Int("sent", sent),
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			h.closed = true
			count := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped", slog.Int("disconnected_clients", count))
			return
		}
	}
}

// Register adds a client. It returns false if the hub has already closed
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client registered",
		slog.String("subscriber", client.subscriber),
		slog.Int("total_clients", count))
	return true
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastEvent queues an event for every client
func (h *Hub) BroadcastEvent(event string, data []byte) {
	select {
	case h.broadcast <- frame{event: event, data: data}:
	default:
		h.logger.Warn("broadcast dropped, hub buffer full", slog.String("event", event))
	}
}

// Close shuts down the hub and disconnects its clients
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.closeOnce.Do(func() { close(h.done) })
}

// closeIfEmpty closes the hub if it has no clients. A concurrent Register
// either lands first or sees the hub closed
func (h *Hub) closeIfEmpty() bool {
	h.mu.Lock()
	if len(h.clients) > 0 {
		h.mu.Unlock()
		return false
	}
	h.closed = true
	h.mu.Unlock()
	h.closeOnce.Do(func() { close(h.done) })
	return true
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message. Each line of data gets its own
// "data: " prefix
func formatSSEMessage(event string, data string) []byte {
	var sb strings.Builder
	sb.WriteString("event: " + event + "\n")
	for _, line := range splitLines(data) {
		sb.WriteString("data: " + line + "\n")
	}
	sb.WriteString("\n")
	return []byte(sb.String())
}

// splitLines splits on \n, dropping \r and a trailing empty line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// Hubs owns one hub per channel
type Hubs struct {
	hubs   map[model.ChannelID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubs creates an empty hub registry
func NewHubs(logger *slog.Logger) *Hubs {
	return &Hubs{
		hubs:   make(map[model.ChannelID]*Hub),
		logger: logger.With(slog.String("component", "gateway")),
	}
}

// Subscribe registers a new client on the channel's hub, creating it if needed
func (m *Hubs) Subscribe(channel model.ChannelID, subscriber string) *Client {
	for {
		hub := m.getOrCreate(channel)
		client := NewClient(hub, subscriber)
		if hub.Register(client) {
			return client
		}
		// CleanupEmptyHubs closed this hub first and removed it from the map
	}
}

func (m *Hubs) getOrCreate(channel model.ChannelID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[channel]; ok {
		return hub
	}
	hub := NewHub(channel, m.logger)
	m.hubs[channel] = hub
	go hub.Run()
	return hub
}

// Get returns the hub for a channel, or nil if nobody is watching it
func (m *Hubs) Get(channel model.ChannelID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[channel]
}

// Subscribers returns the number of connected clients across every channel
func (m *Hubs) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, hub := range m.hubs {
		n += hub.ClientCount()
	}
	return n
}

// CleanupEmptyHubs closes hubs with no clients
func (m *Hubs) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for channel, hub := range m.hubs {
		if hub.closeIfEmpty() {
			delete(m.hubs, channel)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("empty hubs cleaned up", slog.Int("removed", removed))
	}
}

// RunCleanup drops empty hubs every interval until ctx is done
func (m *Hubs) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupEmptyHubs()
		case <-ctx.Done():
			return nil
		}
	}
}

// Close stops every hub
func (m *Hubs) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for channel, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, channel)
	}
}
