// Package storage is the blob-storage boundary used for avatar uploads.
//
// The service layer only sees the BlobStore interface: hand it bytes, get
// back a public URL. The MinIO implementation lives in the minio
// subpackage; tests use an in-memory fake.
package storage

import "context"

// BlobStore stores an uploaded binary blob and returns a public URL for it.
type BlobStore interface {
	// Store writes the blob under a generated object name and returns the
	// URL at which it is publicly readable. contentType is the MIME type
	// reported by the uploader (e.g. "image/png").
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}
