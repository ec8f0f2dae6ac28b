package handler

import (
	"net/http"

	"github.com/mcoot/domonhunt/internal/api/apierr"
	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/ledger"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	ledger *ledger.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(ledger *ledger.Service) *PlayerHandler {
	return &PlayerHandler{
		ledger: ledger,
	}
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.ledger.Get(r.Context(), model.PlayerID(id))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(p))
}
