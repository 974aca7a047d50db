// Package storage defines the interface for persisting accepted uploads.
// The local implementation writes under a directory served by the external web
// server; the MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned when a key is not a single, clean path element.
var ErrInvalidKey = errors.New("invalid storage key")

// Storage is the interface for writing objects and resolving their URLs.
type Storage interface {
	// Save streams data to the store under the given key. Nothing is visible
	// under key unless the whole stream was written.
	Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// PublicURL returns the URL for a given key. A root-relative result
	// ("/uploads/reports/x.png") is resolved against the request by the caller.
	PublicURL(key string) string
}

// ValidateKey rejects keys that could escape the storage root.
func ValidateKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return ErrInvalidKey
	case strings.ContainsAny(key, `/\`+"\x00"):
		return ErrInvalidKey
	case filepath.Base(key) != key:
		return ErrInvalidKey
	}
	return nil
}
