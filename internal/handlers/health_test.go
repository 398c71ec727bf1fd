package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandlerHandle(t *testing.T) {
	handler := HealthHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}
	resp := decode[healthStatus](t, rec)
	if !resp.Success || resp.Data.Status != "ok" || resp.Data.Database != "unchecked" {
		t.Fatalf("unexpected health payload %+v", resp)
	}
}

func TestHealthHandlerPingsDatabase(t *testing.T) {
	var deadline bool
	handler := HealthHandler{Database: pingFunc(func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	})}

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if !deadline {
		t.Fatal("expected ping to run with a deadline")
	}
	if resp := decode[healthStatus](t, rec); resp.Data.Database != "ok" {
		t.Fatalf("expected database ok got %q", resp.Data.Database)
	}
}

func TestHealthHandlerReportsDatabaseFailure(t *testing.T) {
	handler := HealthHandler{Database: pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	})}

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	resp := decode[any](t, rec)
	if resp.Success || resp.Message != "Database unavailable" {
		t.Fatalf("unexpected failure envelope %+v", resp)
	}
}
