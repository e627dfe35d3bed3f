package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/infra"
)

// Uploader turns a received file into a URL the generation API can fetch.
type Uploader interface {
	Upload(ctx context.Context, file *domain.MediaFile) (string, error)
	Mode() string
}

// NewUploader builds the uploader selected by cfg.UploadMode.
func NewUploader(cfg *infra.Config, logger *infra.Logger) (Uploader, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage: config is required")
	}
	switch cfg.UploadMode {
	case infra.UploadModeStub, "":
		return NewStubUploader(""), nil
	case infra.UploadModeHTTP:
		return NewHTTPUploader(HTTPUploaderOptions{
			Endpoint:   cfg.UploadBaseURL,
			APIKey:     cfg.UploadAPIKey,
			HTTPClient: &http.Client{Timeout: cfg.UploadRequestTimeout},
			Logger:     logger,
		})
	case infra.UploadModeS3:
		client, err := NewMinioClient(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3UseSSL)
		if err != nil {
			return nil, err
		}
		return NewObjectUploader(client, ObjectUploaderOptions{
			Bucket:     cfg.S3Bucket,
			PresignTTL: cfg.S3PresignTTL,
			Logger:     logger,
		})
	case infra.UploadModeLocal:
		store, err := NewFileStore(cfg.LocalMediaPath)
		if err != nil {
			return nil, err
		}
		return NewLocalUploader(store, cfg.PublicBaseURL+MediaRoutePrefix, logger), nil
	default:
		return nil, fmt.Errorf("storage: unsupported upload mode %q", cfg.UploadMode)
	}
}

func checkPayload(file *domain.MediaFile) error {
	if file.Empty() {
		return fmt.Errorf("%w: file payload is empty or missing", domain.ErrUpload)
	}
	return nil
}

// objectKey builds a collision-free key that keeps the original extension so
// the remote API can infer the container format.
func objectKey(file *domain.MediaFile) string {
	return path.Join("uploads", uuid.NewString()+file.Ext())
}

func contentTypeOf(file *domain.MediaFile) string {
	if ct := strings.TrimSpace(file.ContentType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
