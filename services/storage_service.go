package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrStorageDisabled = errors.New("object storage is not configured")

// ObjectStore is the bucket the product images live in.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// s3Store works with AWS S3 and S3-compatible endpoints (MinIO, R2).
type s3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Store(ctx context.Context, cfg *structs.StorageConfig) (ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage/s3: S3_BUCKET is not configured")
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	baseURL := strings.TrimRight(cfg.PublicURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &s3Store{
		client:  s3.NewFromConfig(awsConfig, clientOpts...),
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: put %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: delete %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// StorageService validates and stores product images.
type StorageService struct {
	logger   *gecho.Logger
	store    ObjectStore
	maxBytes int64
	now      func() time.Time
}

func NewStorageService(logger *gecho.Logger, cfg *structs.StorageConfig, store ObjectStore) *StorageService {
	return &StorageService{
		logger:   logger,
		store:    store,
		maxBytes: cfg.MaxUploadBytes,
		now:      time.Now,
	}
}

func (ss *StorageService) MaxUploadBytes() int64 {
	return ss.maxBytes
}

// UploadProductImage stores an image under "<unix millis>_<random>.<ext>" and returns its public URL.
func (ss *StorageService) UploadProductImage(ctx context.Context, filename, contentType string, size int64, body io.Reader) (string, error) {
	if ss.store == nil {
		return "", ErrStorageDisabled
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", lib.NewValidationError("file", "must be an image")
	}
	if size <= 0 {
		return "", lib.NewValidationError("file", "is empty")
	}
	if ss.maxBytes > 0 && size > ss.maxBytes {
		return "", lib.NewValidationError("file", fmt.Sprintf("must be at most %d bytes", ss.maxBytes))
	}

	key, err := lib.ImageObjectName(filename, ss.now())
	if err != nil {
		return "", err
	}

	if err := ss.store.Put(ctx, key, body, size, contentType); err != nil {
		ss.logger.Error("Failed to upload product image", gecho.Field("key", key), gecho.Field("error", err))
		return "", err
	}

	ss.logger.Info("Product image uploaded", gecho.Field("key", key), gecho.Field("size", size))
	return ss.store.URL(key), nil
}
