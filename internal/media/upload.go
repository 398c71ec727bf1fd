package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// Uploader copies multipart files to a temporary file, uploads it and always
// removes the temporary copy afterwards.
type Uploader struct {
	Store  Store
	Prober *Prober
	Dir    string
}

// NewUploader constructs an Uploader staging files under dir.
func NewUploader(store Store, prober *Prober, dir string) *Uploader {
	return &Uploader{Store: store, Prober: prober, Dir: dir}
}

// Upload stores the file and returns its asset reference.
func (u *Uploader) Upload(ctx context.Context, file *multipart.FileHeader) (models.Asset, error) {
	asset, _, err := u.upload(ctx, file, false)
	return asset, err
}

// UploadVideo stores the file and reports its duration in seconds. A failed
// probe is logged and reported as zero; it never fails the upload.
func (u *Uploader) UploadVideo(ctx context.Context, file *multipart.FileHeader) (models.Asset, float64, error) {
	return u.upload(ctx, file, true)
}

func (u *Uploader) upload(ctx context.Context, file *multipart.FileHeader, probe bool) (models.Asset, float64, error) {
	if file == nil {
		return models.Asset{}, 0, ErrMissingFile
	}
	if u == nil || u.Store == nil {
		return models.Asset{}, 0, ErrStoreUnavailable
	}

	ctx, span := logging.StartSpan(ctx, "media.upload", "filename", file.Filename, "size", file.Size)
	localPath, err := u.stage(file)
	if err != nil {
		span.End(err)
		return models.Asset{}, 0, err
	}
	defer func() {
		if rmErr := os.Remove(localPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.FromContext(ctx).Warn("remove staged upload", "path", localPath, "error", rmErr)
		}
	}()

	var duration float64
	if probe && u.Prober != nil {
		d, probeErr := u.Prober.Duration(ctx, localPath)
		if probeErr != nil {
			logging.FromContext(ctx).Warn("probe video duration", "error", probeErr)
		} else {
			duration = d
		}
	}

	asset, err := u.Store.Store(ctx, localPath)
	span.End(err)
	if err != nil {
		return models.Asset{}, 0, err
	}
	return asset, duration, nil
}

func (u *Uploader) stage(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := u.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	dst, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close staging file: %w", err)
	}
	return dst.Name(), nil
}
