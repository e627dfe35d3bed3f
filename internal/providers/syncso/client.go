package syncso

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("syncso: api key is required")

const defaultBaseURL = "https://api.sync.so/api/generate"

// Options configures the sync.so generation client.
type Options struct {
	APIKey         string
	BaseURL        string
	Models         []string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the create, list and delete endpoints of the generation API.
// It holds no job state; every call is a fresh remote round trip.
type Client struct {
	apiKey     string
	baseURL    string
	models     []string
	allowed    map[string]struct{}
	httpClient *http.Client
	logger     *infra.Logger
}

// CreateRequest captures the inputs of one lip-sync submission.
type CreateRequest struct {
	Model      string
	VideoURL   string
	Secondary  domain.SecondaryInput
	Options    domain.Options
	WebhookURL string
}

// ListQuery selects a page of the job listing. Search is passed through to
// the remote API as-is and omitted when empty.
type ListQuery struct {
	Page   int
	Search string
}

type createPayload struct {
	Model      string                  `json:"model"`
	Input      []domain.MediaReference `json:"input"`
	Options    domain.Options          `json:"options"`
	WebhookURL string                  `json:"webhookUrl,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("syncso: invalid base url: %w", err)
	}
	models := make([]string, 0, len(opts.Models))
	allowed := make(map[string]struct{}, len(opts.Models))
	for _, m := range opts.Models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, dup := allowed[m]; dup {
			continue
		}
		allowed[m] = struct{}{}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, errors.New("syncso: at least one model must be allowed")
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		models:     models,
		allowed:    allowed,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Models returns the model allow-list in configured order.
func (c *Client) Models() []string {
	return append([]string(nil), c.models...)
}

// AllowsModel reports whether model is in the allow-list.
func (c *Client) AllowsModel(model string) bool {
	_, ok := c.allowed[model]
	return ok
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Create submits a generation job and returns the id assigned by the remote
// API. Every call creates a new job; nothing is retried.
func (c *Client) Create(ctx context.Context, req CreateRequest) (string, error) {
	if !c.AllowsModel(req.Model) {
		return "", domain.Validationf("model %q is not allowed", req.Model)
	}
	videoURL := strings.TrimSpace(req.VideoURL)
	if videoURL == "" {
		return "", domain.Validationf("video url is required")
	}
	if req.Secondary == nil {
		return "", domain.Validationf("audio or text input is required")
	}
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}

	payload := createPayload{
		Model: req.Model,
		Input: []domain.MediaReference{
			{Type: domain.MediaTypeVideo, URL: videoURL},
			req.Secondary.Reference(),
		},
		Options:    req.Options,
		WebhookURL: strings.TrimSpace(req.WebhookURL),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("syncso: encode request: %w", err)
	}

	status, raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/create", body)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", domain.NewRemoteError(domain.ErrSubmission, status, raw)
	}
	var decoded createResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrSubmission, err)
	}
	id := strings.TrimSpace(decoded.ID)
	if id == "" {
		return "", domain.NewRemoteError(domain.ErrSubmission, status, raw)
	}
	c.logger.Info().
		Str("job_id", id).
		Str("model", req.Model).
		Str("secondary", string(payload.Input[1].Type)).
		Bool("webhook", payload.WebhookURL != "").
		Msg("syncso: generation created")
	return id, nil
}

// List fetches one page of previously submitted jobs.
func (c *Client) List(ctx context.Context, q ListQuery) (*domain.JobPage, error) {
	if q.Page < 1 {
		return nil, domain.Validationf("page must be a positive integer, got %d", q.Page)
	}
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	if search := strings.TrimSpace(q.Search); search != "" {
		params.Set("search", search)
	}

	status, raw, err := c.do(ctx, http.MethodGet, c.baseURL+"/list?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, domain.NewRemoteError(domain.ErrListing, status, raw)
	}
	var page domain.JobPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrListing, err)
	}
	if page.Items == nil {
		page.Items = []domain.GenerationJob{}
	}
	c.logger.Debug().
		Int("page", q.Page).
		Int("items", len(page.Items)).
		Int("total", page.Total).
		Msg("syncso: listed generations")
	return &page, nil
}

// Delete removes a job permanently. A non-200 answer, including one for an
// unknown id, is reported as a deletion failure and is safe to retry.
func (c *Client) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Validationf("job id is required")
	}
	if !c.HasCredentials() {
		return ErrMissingAPIKey
	}
	status, raw, err := c.do(ctx, http.MethodDelete, c.baseURL+"/delete/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return domain.NewRemoteError(domain.ErrDeletion, status, raw)
	}
	c.logger.Info().Str("job_id", id).Msg("syncso: generation deleted")
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("syncso: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, domain.NetworkError("syncso "+strings.ToLower(method), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, domain.NetworkError("syncso read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Str("method", method).
			Int("status", resp.StatusCode).
			Msg("syncso: non-success response")
	}
	return resp.StatusCode, raw, nil
}
