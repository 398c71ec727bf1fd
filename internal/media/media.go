// Package media stages uploaded files, hands them to the object store and
// reclaims assets that records no longer reference.
package media

import (
	"context"
	"errors"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrStoreUnavailable indicates no object store is configured.
	ErrStoreUnavailable = errors.New("media store unavailable")
	// ErrMissingFile indicates a required multipart file was not sent.
	ErrMissingFile = errors.New("file is required")
)

// Store persists local files in the external media store.
type Store interface {
	Store(ctx context.Context, localPath string) (models.Asset, error)
	Delete(ctx context.Context, storageID string) error
}
