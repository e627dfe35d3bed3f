package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/infra"
)

// ObjectAPI is the subset of *minio.Client used by ObjectUploader.
type ObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// NewMinioClient connects to any S3-compatible endpoint (MinIO, AWS, R2, ...).
func NewMinioClient(endpoint, accessKeyID, secretKey string, secure bool) (*minio.Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create s3 client: %w", err)
	}
	return client, nil
}

// ObjectUploaderOptions configures ObjectUploader.
type ObjectUploaderOptions struct {
	Bucket     string
	PresignTTL time.Duration
	Logger     *infra.Logger
}

// ObjectUploader stores files in a bucket and returns a presigned GET URL the
// generation API can fetch without credentials.
type ObjectUploader struct {
	api    ObjectAPI
	bucket string
	ttl    time.Duration
	logger *infra.Logger
}

func NewObjectUploader(api ObjectAPI, opts ObjectUploaderOptions) (*ObjectUploader, error) {
	if api == nil {
		return nil, errors.New("storage: s3 client not initialized")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	ttl := opts.PresignTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	// S3 caps presigned URLs at seven days.
	if ttl > 7*24*time.Hour {
		ttl = 7 * 24 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &ObjectUploader{api: api, bucket: bucket, ttl: ttl, logger: logger}, nil
}

func (u *ObjectUploader) Mode() string { return infra.UploadModeS3 }

func (u *ObjectUploader) Upload(ctx context.Context, file *domain.MediaFile) (string, error) {
	if err := checkPayload(file); err != nil {
		return "", err
	}
	key := objectKey(file)
	_, err := u.api.PutObject(ctx, u.bucket, key, bytes.NewReader(file.Data), int64(len(file.Data)), minio.PutObjectOptions{
		ContentType: contentTypeOf(file),
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 put object: %v", domain.ErrUpload, err)
	}
	presigned, err := u.api.PresignedGetObject(ctx, u.bucket, key, u.ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: presign object: %v", domain.ErrUpload, err)
	}
	u.logger.Debug().
		Str("bucket", u.bucket).
		Str("key", key).
		Dur("ttl", u.ttl).
		Msg("storage: uploaded object")
	return presigned.String(), nil
}
