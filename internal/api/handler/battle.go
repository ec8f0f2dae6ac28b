package handler

import (
	"net/http"

	"github.com/mcoot/domonhunt/internal/api/apierr"
	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/battle"
)

// BattleHandler exposes running battles
type BattleHandler struct {
	manager *battle.Manager
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(manager *battle.Manager) *BattleHandler {
	return &BattleHandler{
		manager: manager,
	}
}

// Get handles GET /api/v1/battles/{scope}
func (h *BattleHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := pathID(w, r, "scope")
	if !ok {
		return
	}

	view, err := h.manager.View(r.Context(), model.ScopeID(scope))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, view)
}
