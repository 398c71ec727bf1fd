package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
	"github.com/vidtube/backend/internal/repositories"
)

var errUnavailable = errors.New("handler dependencies unavailable")

func nowFrom(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

// currentUser returns the caller resolved by the auth middleware.
func currentUser(r *http.Request) (models.User, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return models.User{}, apperrors.Unauthorized("Unauthorized request")
	}
	return user, nil
}

// pathID reads a required path parameter.
func pathID(r *http.Request, name string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if id == "" {
		return "", apperrors.Validation("%s is required", name)
	}
	return id, nil
}

func pageParams(r *http.Request, maxLimit int) (query.Params, error) {
	return query.ParseParams(r.URL.Query(), maxLimit)
}

// notFound maps repositories.ErrNotFound to a 404 with msg and leaves other
// errors to be reported as internal failures.
func notFound(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("%s", msg)
	}
	return err
}

// requireOwner rejects callers that do not own the entity.
func requireOwner(ownerID string, user models.User, entity string) error {
	if ownerID != user.ID {
		return apperrors.Forbidden("You are not allowed to modify this %s", entity)
	}
	return nil
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func formValue(r *http.Request, field string) string {
	if r.MultipartForm != nil {
		if values := r.MultipartForm.Value[field]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}
	return strings.TrimSpace(r.FormValue(field))
}

// uploadFailure translates a media upload error for the named form field.
func uploadFailure(err error, field string) error {
	if errors.Is(err, media.ErrMissingFile) {
		return apperrors.Validation("%s file is required", field)
	}
	return apperrors.Upstream(err, "Error while uploading %s", field)
}

// reclaim queues assets that no record references any more. Failures are
// logged; the mutation that released them has already succeeded.
func reclaim(ctx context.Context, reclaimer AssetReclaimer, assets ...models.Asset) {
	if reclaimer == nil {
		return
	}
	for _, asset := range assets {
		if asset.StorageID == "" {
			continue
		}
		if err := reclaimer.Enqueue(ctx, asset); err != nil {
			logging.FromContext(ctx).Warn("queue asset for deletion", "storage_id", asset.StorageID, "error", err)
		}
	}
}
