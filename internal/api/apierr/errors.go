package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/domonhunt/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodeCooldown         = "COOLDOWN"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeCreatureNotFound = "CREATURE_NOT_FOUND"
	CodeNoActiveSpawn    = "NO_ACTIVE_SPAWN"
	CodeNoActiveBattle   = "NO_ACTIVE_BATTLE"
	CodeBattleInProgress = "BATTLE_IN_PROGRESS"
	CodeAlreadyStarted   = "ALREADY_STARTED"
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeUnknownItem      = "UNKNOWN_ITEM"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var cooldown *model.CooldownError
	if errors.As(err, &cooldown) {
		return &httpError{http.StatusTooManyRequests, APIError{CodeCooldown, cooldown.Error()}}
	}

	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrCreatureNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCreatureNotFound, "Unknown DOMON"}}
	case errors.Is(err, model.ErrNoActiveSpawn):
		return &httpError{http.StatusNotFound, APIError{CodeNoActiveSpawn, "No DOMON around right now"}}
	case errors.Is(err, model.ErrNoActiveBattle):
		return &httpError{http.StatusNotFound, APIError{CodeNoActiveBattle, "No battle in this scope"}}
	case errors.Is(err, model.ErrBattleInProgress):
		return &httpError{http.StatusConflict, APIError{CodeBattleInProgress, "A battle is already running in this scope"}}
	case errors.Is(err, model.ErrAlreadyStarted):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyStarted, "Player has already started"}}
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAmount, "Amount must be positive"}}
	case errors.Is(err, model.ErrUnknownItem):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownItem, "Unknown item"}}
	case errors.Is(err, model.ErrUnknownCommand):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownCommand, "Unknown command"}}
	case errors.Is(err, model.ErrNotPrivileged):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Only the bot owner can do this"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
