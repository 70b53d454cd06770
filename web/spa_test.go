package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/stretchr/testify/require"
)

func TestSPAHandler(t *testing.T) {
	handler := SPAHandler(Dist())

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		contentType string
		bodyHas     string
	}{
		{name: "root", method: http.MethodGet, path: "/", wantStatus: http.StatusOK, contentType: "text/html", bodyHas: `<section id="app"`},
		{name: "client route falls back to index", method: http.MethodGet, path: "/events/123", wantStatus: http.StatusOK, contentType: "text/html", bodyHas: "Eventboard"},
		{name: "asset", method: http.MethodGet, path: "/assets/app.js", wantStatus: http.StatusOK, contentType: "javascript", bodyHas: "app-config.json"},
		{name: "stylesheet", method: http.MethodGet, path: "/assets/main.css", wantStatus: http.StatusOK, contentType: "text/css"},
		{name: "traversal stays inside dist", method: http.MethodGet, path: "/../../go.mod", wantStatus: http.StatusOK, contentType: "text/html"},
		{name: "head", method: http.MethodHead, path: "/", wantStatus: http.StatusOK, contentType: "text/html"},
		{name: "post not allowed", method: http.MethodPost, path: "/", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.URL.Path = tt.path
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.contentType != "" {
				require.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			}
			if tt.bodyHas != "" {
				require.Contains(t, rec.Body.String(), tt.bodyHas)
			}
		})
	}
}

func TestSPAHandlerWithoutIndex(t *testing.T) {
	handler := SPAHandler(fstest.MapFS{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigHandler(t *testing.T) {
	handler := ConfigHandler(config.FrontendConfig{PublishableKey: "pk_test_123", APIBaseURL: "/api"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app-config.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"publishableKey":"pk_test_123","apiBaseUrl":"/api"}`, rec.Body.String())
	require.False(t, strings.Contains(rec.Body.String(), "sk_"))
}
