package api

import (
	"io/fs"
	"net/http"
	"net/url"

	"github.com/Togather-Foundation/eventboard/internal/api/handlers"
	"github.com/Togather-Foundation/eventboard/internal/api/middleware"
	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/Togather-Foundation/eventboard/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Config   config.Config
	Logger   zerolog.Logger
	Service  *events.Service
	Verifier auth.Verifier
	// Frontend defaults to the embedded SPA build.
	Frontend fs.FS
}

// NewRouter builds the application handler: routes plus the middleware chain.
func NewRouter(deps Dependencies) http.Handler {
	frontend := deps.Frontend
	if frontend == nil {
		frontend = web.Dist()
	}

	eventsHandler := handlers.NewEventsHandler(deps.Service)
	requireAuth := middleware.Authenticate(deps.Verifier)
	spa := web.SPAHandler(frontend)

	mux := http.NewServeMux()
	mux.Handle("GET /health", handlers.Health())
	mux.Handle("GET /readyz", handlers.Readyz(deps.Service))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("GET /app-config.json", web.ConfigHandler(deps.Config.Frontend))

	for _, collection := range []string{"/api/events", "/api/events/{$}"} {
		mux.HandleFunc("GET "+collection, eventsHandler.List)
		mux.Handle("POST "+collection, requireAuth(http.HandlerFunc(eventsHandler.Create)))
	}
	mux.HandleFunc("GET /api/events/{id}", eventsHandler.Get)
	mux.Handle("PUT /api/events/{id}", requireAuth(http.HandlerFunc(eventsHandler.Update)))
	mux.Handle("DELETE /api/events/{id}", requireAuth(http.HandlerFunc(eventsHandler.Delete)))

	mux.Handle("/api/", notFound())
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			problem.Write(w, r, problem.NotFound(""))
			return
		}
		spa.ServeHTTP(w, r)
	}))

	var handler http.Handler = metrics.HTTPMiddleware(mux)
	handler = middleware.RequestSize(middleware.DefaultMaxBodySize)(handler)
	handler = middleware.CORS(deps.Config.CORS, deps.Logger)(handler)
	handler = middleware.SecurityHeaders(deps.Config.Environment == "production", externalOrigins(deps.Config.Frontend.APIBaseURL)...)(handler)
	handler = middleware.Recover(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}

// externalOrigins returns the origin of base when it is an absolute URL, so
// the SPA may call an API hosted elsewhere.
func externalOrigins(base string) []string {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil
	}
	return []string{parsed.Scheme + "://" + parsed.Host}
}

func notFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, problem.NotFound(""))
	})
}
