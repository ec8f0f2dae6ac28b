package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one connected watcher of a channel
type Client struct {
	hub         *Hub
	subscriber  string
	send        chan frame
	connectedAt time.Time
}

// NewClient creates a client for a hub
func NewClient(hub *Hub, subscriber string) *Client {
	if subscriber == "" {
		subscriber = "anonymous"
	}
	return &Client{
		hub:         hub,
		subscriber:  subscriber,
		send:        make(chan frame, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Close unregisters the client from its hub
func (c *Client) Close() {
	c.hub.Unregister(c)
}

// ServeSSE streams the channel's events to an HTTP client until it disconnects
func ServeSSE(w http.ResponseWriter, r *http.Request, client *Client) {
	defer client.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	hello, _ := json.Marshal(struct {
		Channel string `json:"channel"`
	}{Channel: string(client.hub.channel)})
	_, _ = w.Write(formatSSEMessage("connected", string(hello)))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f, ok := <-client.send:
			if !ok {
				return
			}
			if _, err := w.Write(formatSSEMessage(f.event, string(f.data))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
