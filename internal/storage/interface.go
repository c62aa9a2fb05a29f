package storage

import (
	"context"
	"io"
)

// BlobStorage defines the interface for uploaded image storage. The
// generation pipeline addresses blobs only by the safe key it derives;
// everything behind the key is opaque to the core.
type BlobStorage interface {
	// Upload stores a blob under key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves a blob by key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the public URL for a stored blob
	GetURL(key string) string

	// Delete removes a blob by key
	Delete(ctx context.Context, key string) error

	// Exists checks if a blob exists
	Exists(ctx context.Context, key string) (bool, error)
}
