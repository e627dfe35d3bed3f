package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/i18n"
	"github.com/linhaiwebs/sync/internal/lipsync"
)

// multipartMemory is how much of a submission is buffered in memory before
// the multipart reader spills to temp files.
const multipartMemory = 32 << 20

// SubmitJob accepts the multipart submission and answers {"id": ...}.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	req, err := a.readSubmission(w, r, a.locale(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	id, err := a.Jobs.Submit(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"id": id})
}

// ListJobs answers one page of the remote listing.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query().Get("page"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	result, err := a.Jobs.List(r.Context(), page, search)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"items": result.Items,
		"total": result.Total,
		"page":  page,
	})
}

// DeleteJob removes one job. The listing is not refreshed here.
func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Jobs.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"deleted": id})
}

// readSubmission decodes the multipart form shared by the JSON and HTML
// submit routes. Unset dropdowns fall back to the first value offered by l.
func (a *App) readSubmission(w http.ResponseWriter, r *http.Request, l *i18n.Locale) (lipsync.SubmitRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return lipsync.SubmitRequest{}, err
		}
		// Some multipart read paths flatten the limit error into text.
		if strings.Contains(err.Error(), "request body too large") {
			return lipsync.SubmitRequest{}, &http.MaxBytesError{Limit: a.MaxUploadBytes}
		}
		return lipsync.SubmitRequest{}, domain.Validationf("invalid multipart form: %v", err)
	}
	video, err := readFile(r, "video")
	if err != nil {
		return lipsync.SubmitRequest{}, err
	}
	secondary, err := readFile(r, "audio")
	if err != nil {
		return lipsync.SubmitRequest{}, err
	}

	model := formValue(r, "model")
	if model == "" {
		if models := a.Jobs.Models(); len(models) > 0 {
			model = models[0]
		}
	}
	return lipsync.SubmitRequest{
		Video:     video,
		Secondary: secondary,
		Model:     model,
		Options: domain.Options{
			SyncMode: formValueOr(r, "sync_mode", l.Options.SyncModes),
			Voice:    formValueOr(r, "voice", l.Options.Voices),
			Style:    formValueOr(r, "style", l.Options.Styles),
			Language: formValueOr(r, "language", l.Options.Languages),
		},
		WebhookURL: formValue(r, "webhook_url"),
	}, nil
}

// readFile returns nil for an absent field so the workflow reports the
// missing-file case itself.
func readFile(r *http.Request, field string) (*domain.MediaFile, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Validationf("read %s: %v", field, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &domain.MediaFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func formValueOr(r *http.Request, key string, offered []string) string {
	if v := formValue(r, key); v != "" {
		return v
	}
	if len(offered) > 0 {
		return offered[0]
	}
	return ""
}

// parsePage reads the page query value. Empty means the first page; range
// checks are left to the listing client.
func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validationf("page must be an integer, got %q", raw)
	}
	return page, nil
}
