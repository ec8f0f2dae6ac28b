package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/domonhunt/internal/api/apierr"
	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/catalog"
)

// DomodexHandler serves the creature catalog
type DomodexHandler struct {
	catalog *catalog.Catalog
}

// NewDomodexHandler creates a new domodex handler
func NewDomodexHandler(catalog *catalog.Catalog) *DomodexHandler {
	return &DomodexHandler{
		catalog: catalog,
	}
}

// List handles GET /api/v1/domodex?page=N
func (h *DomodexHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apierr.WriteError(w, apierr.NewInvalidRequestError("page must be a number"))
			return
		}
		page = n
	}

	entries, page := h.catalog.Page(page)
	out := response.DomodexPage{
		Page:    page,
		Pages:   h.catalog.Pages(),
		Entries: make([]response.CreatureSummary, len(entries)),
	}
	for i, c := range entries {
		out.Entries[i] = response.CreatureSummaryFromModel(c)
	}

	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/domodex/{query}, by name or number
func (h *DomodexHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.Lookup(mux.Vars(r)["query"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, c)
}
