package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/i18n"
	"github.com/linhaiwebs/sync/internal/infra"
	"github.com/linhaiwebs/sync/internal/lipsync"
	"github.com/linhaiwebs/sync/internal/middleware"
	"github.com/linhaiwebs/sync/internal/providers/syncso"
)

// JobService is the workflow the handlers drive.
type JobService interface {
	Models() []string
	UploadMode() string
	Submit(ctx context.Context, req lipsync.SubmitRequest) (string, error)
	List(ctx context.Context, page int, search string) (*domain.JobPage, error)
	Delete(ctx context.Context, id string) error
}

var _ JobService = (*lipsync.Service)(nil)

type App struct {
	Jobs           JobService
	Catalog        *i18n.Catalog
	Logger         *infra.Logger
	Location       *time.Location
	MaxUploadBytes int64

	page *template.Template
}

// NewApp wires the handler container and parses the dashboard template.
func NewApp(jobs JobService, catalog *i18n.Catalog, logger *infra.Logger, loc *time.Location, maxUploadBytes int64) (*App, error) {
	if jobs == nil {
		return nil, errors.New("handlers: job service is required")
	}
	if catalog == nil {
		return nil, errors.New("handlers: catalog is required")
	}
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	if loc == nil {
		loc = time.Local
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 200 << 20
	}
	page, err := parseDashboard()
	if err != nil {
		return nil, fmt.Errorf("handlers: parse dashboard template: %w", err)
	}
	return &App{
		Jobs:           jobs,
		Catalog:        catalog,
		Logger:         logger,
		Location:       loc,
		MaxUploadBytes: maxUploadBytes,
		page:           page,
	}, nil
}

func (a *App) locale(r *http.Request) *i18n.Locale {
	return a.Catalog.Get(middleware.LocaleFromContext(r.Context()))
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// fail reports err in the JSON error envelope, with the status derived from
// its kind.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	ev := a.Logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = a.Logger.Error()
	}
	ev.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("code", code).
		Msg("request failed")
	a.error(w, status, code, domain.Diagnostic(err))
}

// classify maps an error kind onto an HTTP status and a stable error code.
func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, syncso.ErrMissingAPIKey):
		return http.StatusServiceUnavailable, "not_configured"
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusGatewayTimeout, "network_error"
	case errors.Is(err, domain.ErrUpload):
		return http.StatusBadGateway, "upload_error"
	case errors.Is(err, domain.ErrSubmission):
		return http.StatusBadGateway, "submission_error"
	case errors.Is(err, domain.ErrListing):
		return http.StatusBadGateway, "listing_error"
	case errors.Is(err, domain.ErrDeletion):
		return http.StatusBadGateway, "deletion_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
