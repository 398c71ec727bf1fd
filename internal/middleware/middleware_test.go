package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vidtube/backend/internal/logging"
)

type envelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestRequestLoggerAttachesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var requestID string
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = logging.RequestIDFromContext(r.Context())
		logging.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if requestID == "" {
		t.Fatal("expected request id on context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != requestID {
		t.Fatalf("expected header %q got %q", requestID, got)
	}
	logs := buf.String()
	if !strings.Contains(logs, `"msg":"inside"`) || !strings.Contains(logs, requestID) {
		t.Fatalf("context logger missing request id: %s", logs)
	}
	if !strings.Contains(logs, `"status":418`) {
		t.Fatalf("completion log missing status: %s", logs)
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := RequestLogger(base)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec.Body)
	if env.Success || env.Message != "Something went wrong" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRequestLoggerReusesValidIncomingID(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	const incoming = "0b7c9a52-3f0e-4d8a-9a4e-2f6f7b1c5d3e"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != incoming {
		t.Fatalf("expected incoming id to be reused got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got == "not-a-uuid" || got == "" {
		t.Fatalf("expected malformed id to be replaced got %q", got)
	}
}

func TestIPRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	limiter := newIPRateLimiter(1, time.Minute, 2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.WithNowFunc(func() time.Time { return now })

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("expected burst of two to be allowed")
	}
	if limiter.Allow("a") {
		t.Fatal("expected third request to be blocked")
	}
	if !limiter.Allow("b") {
		t.Fatal("expected separate key to have its own budget")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("a") {
		t.Fatal("expected token to be replenished after the window")
	}
}

func TestIPRateLimiterExpiresVisitors(t *testing.T) {
	limiter := newIPRateLimiter(1, time.Minute, 1, time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.WithNowFunc(func() time.Time { return now })

	limiter.Allow("stale")
	now = now.Add(2 * time.Second)
	limiter.Allow("fresh")

	limiter.mu.Lock()
	_, ok := limiter.visitors["stale"]
	limiter.mu.Unlock()
	if ok {
		t.Fatal("expected stale visitor to be collected")
	}
}

type denyAll struct{ keys []string }

func (d *denyAll) Allow(key string) bool {
	d.keys = append(d.keys, key)
	return false
}

func TestLimitRendersTooManyRequests(t *testing.T) {
	limiter := &denyAll{}
	called := false
	handler := Limit(limiter, "login")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Fatal("handler should not run when limited")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "login:203.0.113.9" {
		t.Fatalf("unexpected limiter keys %v", limiter.keys)
	}
	if env := decodeEnvelope(t, rec.Body); env.StatusCode != http.StatusTooManyRequests || env.Success {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Fatalf("expected peer address got %q", got)
	}

	req.Header.Set("X-Forwarded-For", " 198.51.100.7 ")
	if got := ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("expected forwarded address got %q", got)
	}
}

func TestMaxBodyRejectsOversizedBodies(t *testing.T) {
	var readErr error
	handler := MaxBody(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Fatalf("expected MaxBytesError got %v", readErr)
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/api/v1/videos/c/{videoId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/videos/c/{videoId}", "404")
	clientErrors := errorsTotal.WithLabelValues("client_error")
	before := testutil.ToFloat64(counter)
	beforeErrors := testutil.ToFloat64(clientErrors)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos/c/"+id, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("expected two requests on the pattern label, got %v", got)
	}
	if got := testutil.ToFloat64(clientErrors) - beforeErrors; got != 2 {
		t.Fatalf("expected two client errors, got %v", got)
	}
}
