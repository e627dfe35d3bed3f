package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/infra"
)

// HTTPUploaderOptions configures the binary-upload host.
type HTTPUploaderOptions struct {
	Endpoint   string
	APIKey     string
	FieldName  string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// HTTPUploader posts files as multipart/form-data to a hosting endpoint and
// reads the public URL from the `fileUrl` field of the JSON answer.
type HTTPUploader struct {
	endpoint   string
	apiKey     string
	fieldName  string
	httpClient *http.Client
	logger     *infra.Logger
}

type uploadResponse struct {
	FileURL string `json:"fileUrl"`
}

func NewHTTPUploader(opts HTTPUploaderOptions) (*HTTPUploader, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("storage: upload endpoint is required")
	}
	if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("storage: invalid upload endpoint %q", endpoint)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	field := strings.TrimSpace(opts.FieldName)
	if field == "" {
		field = "file"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &HTTPUploader{
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(opts.APIKey),
		fieldName:  field,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (u *HTTPUploader) Mode() string { return infra.UploadModeHTTP }

func (u *HTTPUploader) Upload(ctx context.Context, file *domain.MediaFile) (string, error) {
	if err := checkPayload(file); err != nil {
		return "", err
	}
	body, contentType, err := u.encode(file)
	if err != nil {
		return "", fmt.Errorf("%w: encode multipart: %v", domain.ErrUpload, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrUpload, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", domain.NetworkError("upload", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NetworkError("upload read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.NewRemoteError(domain.ErrUpload, resp.StatusCode, raw)
	}
	var decoded uploadResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrUpload, err)
	}
	fileURL := strings.TrimSpace(decoded.FileURL)
	if fileURL == "" {
		return "", domain.NewRemoteError(domain.ErrUpload, resp.StatusCode, raw)
	}
	u.logger.Debug().
		Str("file", file.Name).
		Int("bytes", len(file.Data)).
		Str("url", fileURL).
		Msg("storage: uploaded to host")
	return fileURL, nil
}

func (u *HTTPUploader) encode(file *domain.MediaFile) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	header := make(textproto.MIMEHeader)
	name := filepath.Base(strings.ReplaceAll(file.Name, "\\", "/"))
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, u.fieldName, name))
	header.Set("Content-Type", contentTypeOf(file))
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}
