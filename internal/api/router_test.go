package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSecret = "sk_test_router"

type testServer struct {
	*httptest.Server
	repo   *memory.EventRepository
	tokens *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := memory.NewEventRepository()
	tokens := auth.NewJWTManager(testSecret, time.Hour, "")
	cfg := config.Defaults()
	cfg.Frontend.PublishableKey = "pk_test_router"

	handler := NewRouter(Dependencies{
		Config:   cfg,
		Logger:   zerolog.Nop(),
		Service:  events.NewService(repo),
		Verifier: tokens,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, repo: repo, tokens: tokens}
}

func (s *testServer) token(t *testing.T, subject string) string {
	t.Helper()
	token, err := s.tokens.Generate(subject, subject+"@example.com")
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func TestHealthIgnoresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = srv.do(t, http.MethodGet, "/health", "garbage", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestReadyz(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ready"}`, string(body))
}

func TestMutationsRequireCredential(t *testing.T) {
	srv := newTestServer(t)
	existing, err := events.NewService(srv.repo).Create(context.Background(), "user_1", events.EventInput{Title: "Keep", Date: "2024-01-01"})
	require.NoError(t, err)

	cases := []struct {
		method string
		path   string
		token  string
		body   string
	}{
		{method: http.MethodPost, path: "/api/events", body: `{"title":"Meetup","date":"2024-01-01"}`},
		{method: http.MethodPost, path: "/api/events", token: "not-a-jwt", body: `{"title":"Meetup","date":"2024-01-01"}`},
		{method: http.MethodPut, path: "/api/events/" + existing.ID, body: `{"title":"Changed"}`},
		{method: http.MethodDelete, path: "/api/events/" + existing.ID},
		{method: http.MethodDelete, path: "/api/events/" + existing.ID, token: "not-a-jwt"},
	}

	for _, tc := range cases {
		resp, body := srv.do(t, tc.method, tc.path, tc.token, tc.body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
		require.JSONEq(t, `{"message":"Unauthorized","status":401}`, string(body))
	}

	require.Equal(t, 1, srv.repo.Len())
	got, err := srv.repo.Get(context.Background(), existing.ID)
	require.NoError(t, err)
	require.Equal(t, "Keep", got.Title)
}

func TestExpiredTokenIsUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	expired, err := srv.tokens.GenerateWithExpiry("user_1", "", -time.Minute)
	require.NoError(t, err)

	resp, _ := srv.do(t, http.MethodPost, "/api/events", expired, `{"title":"Meetup","date":"2024-01-01"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 0, srv.repo.Len())
}

func TestEventLifecycle(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.token(t, "user_1")

	resp, body := srv.do(t, http.MethodPost, "/api/events", owner, `{"title":"Meetup","date":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created events.Event
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Meetup", created.Title)
	require.Equal(t, "2024-01-01", created.Date)
	require.Equal(t, "/api/events/"+created.ID, resp.Header.Get("Location"))

	resp, body = srv.do(t, http.MethodGet, "/api/events/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched events.Event
	require.NoError(t, json.Unmarshal(body, &fetched))
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, "Meetup", fetched.Title)
	require.Equal(t, "2024-01-01", fetched.Date)

	for _, path := range []string{"/api/events", "/api/events/"} {
		resp, body = srv.do(t, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var items []events.Event
		require.NoError(t, json.Unmarshal(body, &items))
		require.Len(t, items, 1)
	}

	resp, body = srv.do(t, http.MethodPut, "/api/events/"+created.ID, owner, `{"title":"Meetup #2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated events.Event
	require.NoError(t, json.Unmarshal(body, &updated))
	require.Equal(t, "Meetup #2", updated.Title)
	require.Equal(t, "2024-01-01", updated.Date)

	resp, body = srv.do(t, http.MethodDelete, "/api/events/"+created.ID, owner, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, body)

	resp, body = srv.do(t, http.MethodDelete, "/api/events/"+created.ID, owner, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"message":"Event not found","status":404}`, string(body))
}

func TestNonOwnerCannotMutate(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.token(t, "user_1")
	intruder := srv.token(t, "user_2")

	_, body := srv.do(t, http.MethodPost, "/api/events", owner, `{"title":"Meetup","description":"Monthly","date":"2024-01-01"}`)
	var created events.Event
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body := srv.do(t, http.MethodPut, "/api/events/"+created.ID, intruder, `{"title":"Hijacked"}`)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.JSONEq(t, `{"message":"Forbidden","status":403}`, string(body))

	resp, _ = srv.do(t, http.MethodDelete, "/api/events/"+created.ID, intruder, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	got, err := srv.repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Meetup", got.Title)
	require.Equal(t, "Monthly", got.Description)
}

func TestUnknownEventIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "user_1")

	for _, id := range []string{"01HX1234567890ABCDEFGHJKMN", "nope"} {
		resp, body := srv.do(t, http.MethodGet, "/api/events/"+id, "", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.JSONEq(t, `{"message":"Event not found","status":404}`, string(body))

		resp, _ = srv.do(t, http.MethodPut, "/api/events/"+id, token, `{"title":"x"}`)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}

func TestUnknownAPIRouteIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodGet, "/api/venues", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"message":"Not Found","status":404}`, string(body))

	resp, _ = srv.do(t, http.MethodPost, "/somewhere", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidationAndBodyLimits(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "user_1")

	resp, body := srv.do(t, http.MethodPost, "/api/events", token, `{"title":"","date":"2024-13-01"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.Equal(t, float64(400), envelope["status"])
	require.Contains(t, envelope["errors"], "title")
	require.Contains(t, envelope["errors"], "date")

	huge := `{"title":"Big","date":"2024-01-01","description":"` + strings.Repeat("x", 1<<20) + `"}`
	resp, body = srv.do(t, http.MethodPost, "/api/events", token, huge)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	require.JSONEq(t, `{"message":"Request body too large","status":413}`, string(body))
	require.Equal(t, 0, srv.repo.Len())
}

func TestUnstorableValuesAreBadRequests(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "user_1")

	for _, body := range []string{
		`{"title":"a\u0000b","date":"2024-01-01"}`,
		`{"title":"Meetup","date":"0000-01-01"}`,
		`{"title":"Meetup","date":"2024-01-01"} garbage`,
	} {
		resp, payload := srv.do(t, http.MethodPost, "/api/events", token, body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %s", body)
		var envelope map[string]any
		require.NoError(t, json.Unmarshal(payload, &envelope))
		require.Equal(t, float64(400), envelope["status"])
	}
	require.Equal(t, 0, srv.repo.Len())
}

func TestEncodedMarkupIsStripped(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "user_1")

	resp, body := srv.do(t, http.MethodPost, "/api/events", token,
		`{"title":"&lt;b&gt;Launch&lt;/b&gt;","description":"&lt;script&gt;alert(1)&lt;/script&gt;Bring snacks","date":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created events.Event
	require.NoError(t, json.Unmarshal(body, &created))
	require.Equal(t, "Launch", created.Title)
	require.Equal(t, "Bring snacks", created.Description)

	resp, _ = srv.do(t, http.MethodPost, "/api/events", token, `{"title":"&lt;script&gt;alert(1)&lt;/script&gt;","date":"2024-01-01"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 1, srv.repo.Len())
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/api/events", "/api/nope", "/health"} {
		resp, _ := srv.do(t, http.MethodGet, path, "", "")
		require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"), path)
		require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"), path)
		require.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'self'", path)
		require.Empty(t, resp.Header.Get("Strict-Transport-Security"), path)
	}
}

func TestExternalOrigins(t *testing.T) {
	require.Nil(t, externalOrigins("/api"))
	require.Equal(t, []string{"https://api.example.com"}, externalOrigins("https://api.example.com/v1"))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestFrontendShell(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `id="app"`)

	resp, body = srv.do(t, http.MethodGet, "/some/client/route", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `id="app"`)

	resp, body = srv.do(t, http.MethodGet, "/app-config.json", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"publishableKey":"pk_test_router","apiBaseUrl":"/api"}`, string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/api/events", "", "")

	resp, body := srv.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `eventboard_http_requests_total{method="GET",route="/api/events",status="200"}`)
}

type failingRepository struct {
	err error
}

func (f failingRepository) List(context.Context) ([]events.Event, error) { return nil, f.err }
func (f failingRepository) Get(context.Context, string) (*events.Event, error) {
	return nil, f.err
}
func (f failingRepository) Create(context.Context, events.EventCreateParams) (*events.Event, error) {
	return nil, f.err
}
func (f failingRepository) Update(context.Context, string, events.EventUpdateParams) (*events.Event, error) {
	return nil, f.err
}
func (f failingRepository) Delete(context.Context, string) error { return f.err }
func (f failingRepository) Ping(context.Context) error           { return f.err }

type panickingRepository struct {
	failingRepository
}

func (panickingRepository) List(context.Context) ([]events.Event, error) {
	panic("nil map write in storage layer")
}

func newRouterWithRepo(t *testing.T, repo events.Repository, logs *bytes.Buffer) *httptest.Server {
	t.Helper()
	handler := NewRouter(Dependencies{
		Config:   config.Defaults(),
		Logger:   zerolog.New(logs),
		Service:  events.NewService(repo),
		Verifier: auth.NewJWTManager(testSecret, time.Hour, ""),
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestInternalErrorsDoNotLeak(t *testing.T) {
	var logs bytes.Buffer
	secret := errors.New("dial tcp 10.0.0.7:5432: password authentication failed for user \"events\"")
	srv := newRouterWithRepo(t, failingRepository{err: secret}, &logs)

	resp, err := srv.Client().Get(srv.URL + "/api/events")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"message":"Internal Server Error","status":500}`, string(body))
	require.NotContains(t, string(body), "password")
	require.Contains(t, logs.String(), "password authentication failed")

	resp, err = srv.Client().Get(srv.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPanicsBecomeGenericErrors(t *testing.T) {
	var logs bytes.Buffer
	srv := newRouterWithRepo(t, panickingRepository{failingRepository{err: errors.New("unused")}}, &logs)

	resp, err := srv.Client().Get(srv.URL + "/api/events")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"message":"Internal Server Error","status":500}`, string(body))
	require.Contains(t, logs.String(), "nil map write")
}
