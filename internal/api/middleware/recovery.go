package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/domonhunt/internal/api/apierr"
	"github.com/mcoot/domonhunt/internal/middleware"
)

// Recovery is the shared panic recovery with the API's JSON error body in
// place of the plain text 500, so CLI clients can decode it as an APIError
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, writeInternalError)
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
