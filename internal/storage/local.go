package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/infra"
)

// MediaRoutePrefix is where the dashboard serves files written by LocalUploader.
const MediaRoutePrefix = "/media"

// LocalUploader writes into a FileStore and hands out URLs under the
// dashboard's public base URL. The URLs are only fetchable by the remote API
// when the dashboard is reachable from the internet.
type LocalUploader struct {
	store   *FileStore
	baseURL string
	logger  *infra.Logger
}

func NewLocalUploader(store *FileStore, baseURL string, logger *infra.Logger) *LocalUploader {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &LocalUploader{store: store, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (u *LocalUploader) Mode() string { return infra.UploadModeLocal }

// Store exposes the backing FileStore so the router can serve it.
func (u *LocalUploader) Store() *FileStore { return u.store }

func (u *LocalUploader) Upload(ctx context.Context, file *domain.MediaFile) (string, error) {
	if err := checkPayload(file); err != nil {
		return "", err
	}
	key, err := u.store.Write(ctx, objectKey(file), file.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	u.logger.Debug().Str("key", key).Int("bytes", len(file.Data)).Msg("storage: stored local upload")
	return u.baseURL + "/" + key, nil
}
