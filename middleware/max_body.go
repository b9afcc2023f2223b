package middleware

import (
	"net/http"
)

// MaxBody enforces a maximum request body size in bytes. Non-positive values
// fall back to 1 MiB.
func MaxBody(max int64) func(http.Handler) http.Handler {
	if max <= 0 {
		max = 1 << 20
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}
