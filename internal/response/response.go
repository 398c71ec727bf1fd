// Package response renders the API's success and failure envelopes.
package response

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
)

// Success is the envelope wrapping every successful payload.
type Success struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Failure is the envelope rendered for every error.
type Failure struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

// JSON writes data in the success envelope.
func JSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	write(ctx, w, status, Success{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest})
}

// OK writes a 200 success envelope.
func OK(ctx context.Context, w http.ResponseWriter, data any, message string) {
	JSON(ctx, w, http.StatusOK, data, message)
}

// Created writes a 201 success envelope.
func Created(ctx context.Context, w http.ResponseWriter, data any, message string) {
	JSON(ctx, w, http.StatusCreated, data, message)
}

// Error converts err into the failure envelope. Unstructured errors become a
// generic 500 and their cause is only logged.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := apperrors.From(err)
	if appErr == nil {
		appErr = apperrors.Internal(nil, "Something went wrong")
	}

	logger := logging.FromContext(ctx)
	switch {
	case appErr.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", "status", appErr.StatusCode, "kind", appErr.Kind, "message", appErr.Message, "error", appErr.Cause)
	default:
		logger.Warn("request returned client error", "status", appErr.StatusCode, "kind", appErr.Kind, "message", appErr.Message)
	}

	details := appErr.Details
	if details == nil {
		details = []string{}
	}
	write(ctx, w, appErr.StatusCode, Failure{
		StatusCode: appErr.StatusCode,
		Message:    appErr.Message,
		Errors:     details,
		Success:    false,
	})
}

func write(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
