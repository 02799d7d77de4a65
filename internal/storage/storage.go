package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL is the public address of key in the configured bucket.
	URL(key string) string
	Bucket() string
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Storage wraps an ObjectStorage backend with the upload API used for
// article images.
type Storage struct {
	backend       ObjectStorage
	publicBaseURL string
	now           func() time.Time
}

// NewStorage constructs a Storage wrapper for the provided backend. When
// publicBaseURL is set (a CDN in front of the bucket, say), object URLs are
// built from it instead of from the backend.
func NewStorage(backend ObjectStorage, publicBaseURL string) *Storage {
	return &Storage{
		backend:       backend,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		now:           time.Now,
	}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Upload stores content under a fresh "<unix-millis>-<filename>" key and
// returns its public URL.
func (s *Storage) Upload(ctx context.Context, content io.Reader, size int64, filename, contentType string) (string, error) {
	key := ObjectKey(s.now(), filename)
	if err := s.backend.Put(ctx, key, content, size, contentType); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.url(key), nil
}

// Remove deletes the object behind a URL previously returned by Upload.
func (s *Storage) Remove(ctx context.Context, objectURL string) error {
	key, err := s.keyFromURL(objectURL)
	if err != nil {
		return err
	}
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// ObjectKey builds the object key for an upload received at t.
func ObjectKey(t time.Time, filename string) string {
	name := unsafeKeyChars.ReplaceAllString(path.Base(strings.ReplaceAll(filename, `\`, "/")), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("%d-%s", t.UnixMilli(), name)
}

func (s *Storage) url(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return s.backend.URL(key)
}

func (s *Storage) keyFromURL(objectURL string) (string, error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", fmt.Errorf("parse object url: %w", err)
	}
	key := path.Base(u.Path)
	if key == "" || key == "." || key == "/" {
		return "", errors.New("object url has no key")
	}
	return key, nil
}
