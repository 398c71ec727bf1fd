package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/apperrors"
)

func TestJSONWritesSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(context.Background(), rec, map[string]string{"id": "v1"}, "Video published")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body struct {
		StatusCode int               `json:"statusCode"`
		Data       map[string]string `json:"data"`
		Message    string            `json:"message"`
		Success    bool              `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.StatusCode != 201 || !body.Success || body.Data["id"] != "v1" || body.Message != "Video published" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestErrorRendersStructuredError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(context.Background(), rec, apperrors.Validation("invalid fields").WithDetails("title is required"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var body Failure
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Message != "invalid fields" || len(body.Errors) != 1 {
		t.Fatalf("unexpected failure envelope: %+v", body)
	}
}

func TestErrorHidesUnstructuredCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(context.Background(), rec, errors.New("pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "Something went wrong" {
		t.Fatalf("expected generic message got %v", body["message"])
	}
	if errs, ok := body["errors"].([]any); !ok || len(errs) != 0 {
		t.Fatalf("expected empty errors array got %v", body["errors"])
	}
}
