package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// MaxBody caps request bodies at limit bytes. Reads past the cap fail with
// *http.MaxBytesError, which handlers report as 413. A non-positive limit
// disables the cap.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimiddleware.RequestSize(limit)
}
