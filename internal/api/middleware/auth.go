package middleware

import (
	"net/http"

	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/rs/zerolog"
)

// Authenticate admits a request only when its bearer token verifies. The
// verifier is called once per request; every failure is a 401.
func Authenticate(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err == nil {
				var identity *auth.Identity
				identity, err = verifier.Verify(r.Context(), token)
				if err == nil && identity != nil {
					logger := zerolog.Ctx(r.Context()).With().Str("subject", identity.Subject).Logger()
					ctx := auth.ContextWithIdentity(r.Context(), identity)
					ctx = logger.WithContext(ctx)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				if err == nil {
					err = auth.ErrInvalidToken
				}
			}

			metrics.AuthFailures.Inc()
			problem.Write(w, r, problem.Unauthorized(err))
		})
	}
}
