package middleware

import "net/http"

// MaxBodyBytes caps the request body size. Hook payloads carry full
// conversation transcripts, so the cap is generous but bounded.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
