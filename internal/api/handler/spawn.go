package handler

import (
	"net/http"

	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/services/spawn"
)

// SpawnHandler exposes the shared spawn state
type SpawnHandler struct {
	controller *spawn.Controller
	catalog    *catalog.Catalog
	clock      clock.Clock
}

// NewSpawnHandler creates a new spawn handler
func NewSpawnHandler(controller *spawn.Controller, catalog *catalog.Catalog, clock clock.Clock) *SpawnHandler {
	return &SpawnHandler{
		controller: controller,
		catalog:    catalog,
		clock:      clock,
	}
}

// Get handles GET /api/v1/spawn
func (h *SpawnHandler) Get(w http.ResponseWriter, r *http.Request) {
	state := h.controller.State()

	var creature *model.Creature
	if state.Active {
		if c, err := h.catalog.ByNumber(state.Creature); err == nil {
			creature = &c
		}
	}

	window := h.controller.Config().ScanWindow
	response.JSON(w, http.StatusOK, response.SpawnFromModel(state, h.controller.Channel(), creature, h.clock.Now(), window))
}
