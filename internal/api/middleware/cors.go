package middleware

import (
	"net/http"
	"strings"

	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/rs/zerolog"
)

const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, X-Request-ID"
	corsExposeHeaders = "X-Request-ID, Location"
	corsMaxAge        = "86400"
)

// CORS applies the cross-origin policy to every route.
//
// With no configured allow-list every origin is allowed and the response
// carries "Access-Control-Allow-Origin: *". With an allow-list, a matching
// Origin is echoed back with "Vary: Origin" and other origins get no CORS
// headers. Preflight OPTIONS requests are answered with 204.
func CORS(cfg config.CORSConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	allowAll := len(cfg.AllowedOrigins) == 0

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if !allowAll {
				w.Header().Add("Vary", "Origin")
			}

			allowedOrigin := ""
			switch {
			case allowAll:
				allowedOrigin = "*"
			case origin != "" && isOriginAllowed(origin, cfg.AllowedOrigins):
				allowedOrigin = origin
			case origin != "":
				logger.Warn().
					Str("origin", origin).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("CORS request rejected: origin not in allow-list")
			}

			if allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				w.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowedOrigin != "" {
					w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
					w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
					w.Header().Set("Access-Control-Max-Age", corsMaxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	origin = strings.ToLower(strings.TrimSpace(origin))
	for _, allowed := range allowedOrigins {
		if strings.ToLower(strings.TrimSpace(allowed)) == origin {
			return true
		}
	}
	return false
}
