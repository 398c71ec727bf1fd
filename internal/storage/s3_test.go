package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type uploaderStub struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (u *uploaderStub) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	u.input = input
	if input.Body != nil {
		data, err := io.ReadAll(input.Body)
		if err != nil {
			return nil, err
		}
		u.body = data
	}
	if u.err != nil {
		return nil, u.err
	}
	return &manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + aws.ToString(input.Key)}, nil
}

type deleterStub struct {
	keys []string
	err  error
}

func (d *deleterStub) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	d.keys = append(d.keys, aws.ToString(input.Key))
	return &s3.DeleteObjectOutput{}, d.err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	return path
}

func TestStoreUsesRandomKeyAndPublicURL(t *testing.T) {
	uploader := &uploaderStub{}
	store := newS3Storage(uploader, &deleterStub{}, "media", "https://cdn.example.com/")

	asset, err := store.Store(context.Background(), writeTemp(t, "thumb.PNG", "video"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasSuffix(asset.StorageID, ".png") || len(asset.StorageID) <= len(".png") {
		t.Fatalf("unexpected storage id %q", asset.StorageID)
	}
	if asset.URL != "https://cdn.example.com/"+asset.StorageID {
		t.Fatalf("unexpected url %q", asset.URL)
	}
	if aws.ToString(uploader.input.Bucket) != "media" || string(uploader.body) != "video" {
		t.Fatalf("unexpected upload input bucket=%q body=%q", aws.ToString(uploader.input.Bucket), uploader.body)
	}
	if aws.ToString(uploader.input.ContentType) != "image/png" {
		t.Fatalf("unexpected content type %q", aws.ToString(uploader.input.ContentType))
	}
}

func TestStoreFallsBackToUploadLocation(t *testing.T) {
	store := newS3Storage(&uploaderStub{}, &deleterStub{}, "media", "")
	asset, err := store.Store(context.Background(), writeTemp(t, "a.jpg", "img"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if asset.URL != "https://bucket.s3.amazonaws.com/"+asset.StorageID {
		t.Fatalf("unexpected url %q", asset.URL)
	}
}

func TestStoreErrors(t *testing.T) {
	store := newS3Storage(&uploaderStub{err: errors.New("denied")}, &deleterStub{}, "media", "")
	if _, err := store.Store(context.Background(), writeTemp(t, "a.jpg", "img")); err == nil {
		t.Fatal("expected upload error")
	}
	if _, err := store.Store(context.Background(), filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Fatal("expected open error")
	}
}

func TestDelete(t *testing.T) {
	deleter := &deleterStub{}
	store := newS3Storage(&uploaderStub{}, deleter, "media", "")

	if err := store.Delete(context.Background(), "/abc.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleter.keys) != 1 || deleter.keys[0] != "abc.jpg" {
		t.Fatalf("unexpected deleted keys %v", deleter.keys)
	}
	if err := store.Delete(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}
