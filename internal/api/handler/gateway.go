package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/domonhunt/internal/gateway"
	"github.com/mcoot/domonhunt/internal/model"
)

// GatewayHandler connects chat clients to channels
type GatewayHandler struct {
	hubs       *gateway.Hubs
	dispatcher gateway.Dispatcher
	access     Access
	logger     *slog.Logger
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(hubs *gateway.Hubs, dispatcher gateway.Dispatcher, access Access, logger *slog.Logger) *GatewayHandler {
	return &GatewayHandler{
		hubs:       hubs,
		dispatcher: dispatcher,
		access:     access,
		logger:     logger,
	}
}

// Events handles GET /api/v1/channels/{channel}/events (SSE)
func (h *GatewayHandler) Events(w http.ResponseWriter, r *http.Request) {
	channel, ok := pathID(w, r, "channel")
	if !ok {
		return
	}
	client := h.hubs.Subscribe(model.ChannelID(channel), r.URL.Query().Get("user"))
	gateway.ServeSSE(w, r, client)
}

// Connect handles GET /api/v1/gateway?user=&name=&channel=&scope= (websocket)
func (h *GatewayHandler) Connect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user, ok := requireID(w, "user", q.Get("user"))
	if !ok {
		return
	}
	channel, ok := requireID(w, "channel", q.Get("channel"))
	if !ok {
		return
	}
	id := gateway.Identity{
		User:        model.PlayerID(user),
		DisplayName: q.Get("name"),
		Channel:     model.ChannelID(channel),
		Scope:       model.ScopeID(q.Get("scope")),
		Anonymous:   !h.access.Authenticated,
	}

	gateway.ServeWebsocket(w, r, h.hubs, h.dispatcher, id, h.access.OriginPatterns, h.logger)
}
