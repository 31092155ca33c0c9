// Package minio implements the storage.BlobStore interface on a
// MinIO/S3-compatible object store. Avatars are small public images, so
// the bucket is expected to allow anonymous reads; Store returns the
// direct object URL.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/xid"

	"github.com/sakif/collabcampus/internal/storage"
)

// compile-time check that *Store implements storage.BlobStore
var _ storage.BlobStore = (*Store)(nil)

// Config holds the connection settings for the object store.
type Config struct {
	Endpoint  string // host:port, e.g. "localhost:9000"
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL overrides the URL prefix returned for stored objects.
	// Empty means derive it from Endpoint and UseSSL.
	PublicBaseURL string
}

// Store uploads blobs to a single bucket.
type Store struct {
	client *minio.Client
	cfg    Config
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: creating client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: checking bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio: creating bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Store{client: client, cfg: cfg}, nil
}

// Store uploads the blob under a fresh xid-based object name and returns
// its public URL. The xid prefix keeps names unique and roughly
// time-sortable, which makes bucket listings sane.
func (s *Store) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	name := "avatars/" + xid.New().String() + extensionFor(contentType)

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, name,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("minio: uploading %q: %w", name, err)
	}

	return s.publicURL(name), nil
}

func (s *Store) publicURL(name string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + s.cfg.Bucket + "/" + name
	}
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, name)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
