package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// ObjectStorage defines the object storage operations the download archive needs
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the URL for accessing an object
	GetURL(key string) string
}

// MemeKey returns the archive key for an image URL: memes/<sha256(url)>.jpg.
// The same URL always maps to the same key.
func MemeKey(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return "memes/" + hex.EncodeToString(sum[:]) + ".jpg"
}
