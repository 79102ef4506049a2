// Package requesttime pins a single "now" per HTTP request so lockout windows,
// records and audit events of one request agree on the time.
package requesttime

import (
	"net/http"
	"time"

	"nicgate/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
