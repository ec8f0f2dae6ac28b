package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/domonhunt/internal/api/apierr"
)

// maxIDLength bounds user, channel and scope identifiers taken from requests
const maxIDLength = 128

// Access describes how far the gateway trusts the identities callers claim
type Access struct {
	// Authenticated is true when a gateway token guards the routes that act
	// as a player. Without it nobody is treated as the owner
	Authenticated bool
	// OriginPatterns lists the browser origins allowed to open a websocket
	OriginPatterns []string
}

// requireID trims an identifier from a body or query string. On failure the
// 400 has already been written
func requireID(w http.ResponseWriter, field, value string) (string, bool) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		apierr.WriteError(w, apierr.NewInvalidRequestError(field+" is required"))
		return "", false
	case len(value) > maxIDLength:
		apierr.WriteError(w, apierr.NewInvalidRequestError(fmt.Sprintf("%s must be at most %d bytes", field, maxIDLength)))
		return "", false
	}
	return value, true
}

// pathID is requireID for a mux path variable
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	return requireID(w, name, mux.Vars(r)[name])
}
