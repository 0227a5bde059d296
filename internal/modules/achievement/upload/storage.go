package upload

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/achievement-space/core/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Storage persists uploaded bytes under a relative path and reports the
// public host files are served from.
type Storage interface {
	Put(ctx context.Context, path string, data []byte, mime string) error
	Host() string
}

// LocalStorage writes files under the static directory; gin serves them.
type LocalStorage struct {
	root string
	host string
}

func NewLocalStorage(root, host string) *LocalStorage {
	return &LocalStorage{root: root, host: host}
}

func (s *LocalStorage) Put(_ context.Context, path string, data []byte, _ string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	return nil
}

func (s *LocalStorage) Host() string { return s.host }

// S3Storage stores files in an S3-compatible bucket.
type S3Storage struct {
	client *s3.Client
	bucket string
	host   string
}

func NewS3Storage(cfg config.S3Config, host string) *S3Storage {
	opts := s3.Options{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			awscreds.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		UsePathStyle: cfg.PathStyleAccess,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &S3Storage{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		host:   strings.TrimRight(host, "/"),
	}
}

func (s *S3Storage) Put(ctx context.Context, path string, data []byte, mime string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mime),
	})
	if err != nil {
		return fmt.Errorf("s3 put %q: %w", path, err)
	}
	return nil
}

func (s *S3Storage) Host() string { return s.host }
