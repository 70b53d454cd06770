package middleware

import "net/http"

// DefaultMaxBodySize is the request body limit for the API.
const DefaultMaxBodySize int64 = 1 << 20

// RequestSize wraps the body with http.MaxBytesReader. Handlers see an
// *http.MaxBytesError when decoding an oversized body and report 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
