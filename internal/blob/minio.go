package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"file-drop/internal/fileid"
)

// MinioConfig holds the connection settings for an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string // "minio:9000" or "http(s)://minio:9000"
	AccessKey string
	SecretKey string
	Bucket    string
}

// MinioStore stores each file as the object uploads/<identifier>.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// No scheme provided, treat as host:port (insecure by default for local MinIO).
	return raw, false, nil
}

// NewMinioStore connects to the bucket and checks that it exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	s := &MinioStore{client: client, bucket: cfg.Bucket}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func objectKey(id fileid.ID) string {
	return "uploads/" + id.String()
}

// Write streams r into the object for id. The length is unknown up front,
// so the client falls back to a multipart upload for large bodies.
func (s *MinioStore) Write(ctx context.Context, id fileid.ID, r io.Reader) (int64, error) {
	info, err := s.client.PutObject(ctx, s.bucket, objectKey(id), r, -1,
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", id, err)
	}
	return info.Size, nil
}

// Open returns a reader for the object for id.
func (s *MinioStore) Open(ctx context.Context, id fileid.ID) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	// GetObject is lazy; Stat surfaces a missing object before any bytes
	// are promised to the client.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("stat %s: %w", id, err)
	}
	return obj, nil
}

// Ping checks that the bucket is reachable and exists.
func (s *MinioStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("minio bucket does not exist: %s", s.bucket)
	}
	return nil
}
