package storage

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/infra"
)

// StubUploader returns a placeholder URL derived from the file name. Nothing
// is uploaded and the URL is not fetchable, so any job submitted with it
// fails remotely. Demonstration only.
type StubUploader struct {
	baseURL string
}

// NewStubUploader creates a stub rooted at baseURL (https://example.com by default).
func NewStubUploader(baseURL string) *StubUploader {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://example.com"
	}
	return &StubUploader{baseURL: baseURL}
}

func (s *StubUploader) Mode() string { return infra.UploadModeStub }

func (s *StubUploader) Upload(ctx context.Context, file *domain.MediaFile) (string, error) {
	if err := checkPayload(file); err != nil {
		return "", err
	}
	name := filepath.Base(strings.ReplaceAll(file.Name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return s.baseURL + "/" + url.PathEscape(name), nil
}
