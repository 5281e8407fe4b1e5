// Object-store access for derived media. Thumbnails are downloaded from
// the source site, transcoded, and stored once under a deterministic
// object name; the relational catalog records the resulting handle.

package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vperic/mangalib-go/internal/config"
)

// Archiver stores a remote image as a durable object and returns its
// handle. Idempotent creation is the caller's responsibility.
type Archiver interface {
	Archive(ctx context.Context, objectName, sourceURL string) (string, error)
}

// MinioStore archives thumbnails into a MinIO bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	referer string
	http    *http.Client
}

// NewMinioStore connects to the object store configured in cfg.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Media.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Media.AccessKey, cfg.Media.SecretKey, ""),
		Secure: cfg.Media.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &MinioStore{
		client:  client,
		bucket:  cfg.Media.Bucket,
		referer: cfg.Source.BaseURL + "/",
		http:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Archive downloads the source image, transcodes it to a compressed
// thumbnail and uploads it under objectName. Returns the object name as
// the durable handle.
func (m *MinioStore) Archive(ctx context.Context, objectName, sourceURL string) (string, error) {
	imageData, err := m.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	thumb, err := GenerateThumbnail(imageData)
	if err != nil {
		return "", fmt.Errorf("failed to generate thumbnail for %s: %w", sourceURL, err)
	}

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
		}
	}

	_, err = m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(thumb), int64(len(thumb)),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", objectName, err)
	}

	return objectName, nil
}

// download fetches the raw image. The source site rejects image requests
// without a Referer header.
func (m *MinioStore) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", sourceURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", m.referer)

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image could not be retrieved: %s returned %d", sourceURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
