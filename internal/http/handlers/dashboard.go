package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/i18n"
	"github.com/linhaiwebs/sync/internal/infra"
	"github.com/linhaiwebs/sync/internal/lipsync"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

func parseDashboard() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/dashboard.html")
}

type flash struct {
	Error bool
	Text  string
}

type jobCard struct {
	ID           string
	Status       string
	Model        string
	Created      string
	Input        string
	Options      string
	VideoURL     string
	DownloadName string
}

type dashboardView struct {
	L        *i18n.Locale
	Locales  []*i18n.Locale
	Models   []string
	StubMode bool
	Flash    *flash

	Page      int
	PrevPage  int
	NextPage  int
	Search    string
	Jobs      []jobCard
	Total     int
	ListError string
}

// Dashboard renders the upload form and one page of generation records.
func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := a.newView(r, dashboardPage(q.Get("page")), q.Get("search"))
	l := view.L
	switch {
	case q.Get("deleted") != "":
		view.Flash = &flash{Text: l.T("deleted")}
	case q.Get("delete_error") != "":
		view.Flash = &flash{Error: true, Text: l.T("delete_failed") + " " + q.Get("delete_error")}
	}
	a.loadJobs(r, view)
	a.render(w, http.StatusOK, view)
}

// SubmitJobForm is the HTML variant of SubmitJob: it re-renders the dashboard
// with a flash message instead of answering JSON.
func (a *App) SubmitJobForm(w http.ResponseWriter, r *http.Request) {
	view := a.newView(r, 1, "")
	l := view.L
	status := http.StatusOK

	req, err := a.readSubmission(w, r, l)
	if err == nil && (req.Video.Empty() || req.Secondary.Empty()) {
		status = http.StatusBadRequest
		view.Flash = &flash{Error: true, Text: l.T("missing_files")}
	} else {
		var id string
		if err == nil {
			id, err = a.Jobs.Submit(r.Context(), req)
		}
		if err != nil {
			status, _ = classify(err)
			a.Logger.Warn().Err(err).Msg("dashboard: submission failed")
			view.Flash = &flash{Error: true, Text: l.T("submit_failed") + " " + domain.Diagnostic(err)}
		} else {
			view.Flash = &flash{Text: l.T("submitted") + " " + id}
		}
	}
	a.loadJobs(r, view)
	a.render(w, status, view)
}

// DeleteJobForm deletes a job and redirects back to the listing it was
// issued from. The redirect target reports the outcome.
func (a *App) DeleteJobForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := url.Values{}
	if page := dashboardPage(r.FormValue("page")); page > 1 {
		back.Set("page", strconv.Itoa(page))
	}
	if search := strings.TrimSpace(r.FormValue("search")); search != "" {
		back.Set("search", search)
	}
	if err := a.Jobs.Delete(r.Context(), id); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", id).Msg("dashboard: deletion failed")
		back.Set("delete_error", domain.Diagnostic(err))
	} else {
		back.Set("deleted", id)
	}
	target := "/"
	if encoded := back.Encode(); encoded != "" {
		target += "?" + encoded
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (a *App) newView(r *http.Request, page int, search string) *dashboardView {
	return &dashboardView{
		L:        a.locale(r),
		Locales:  a.Catalog.Locales(),
		Models:   a.Jobs.Models(),
		StubMode: a.Jobs.UploadMode() == infra.UploadModeStub,
		Page:     page,
		PrevPage: page - 1,
		NextPage: page + 1,
		Search:   strings.TrimSpace(search),
	}
}

// loadJobs fills the listing part of view. A failed listing is shown as an
// error, never as an empty page.
func (a *App) loadJobs(r *http.Request, view *dashboardView) {
	result, err := a.Jobs.List(r.Context(), view.Page, view.Search)
	if err != nil {
		a.Logger.Warn().Err(err).Int("page", view.Page).Msg("dashboard: listing failed")
		view.ListError = view.L.T("list_failed") + " " + domain.Diagnostic(err)
		return
	}
	view.Total = result.Total
	view.Jobs = make([]jobCard, 0, len(result.Items))
	for _, job := range result.Items {
		view.Jobs = append(view.Jobs, a.card(job))
	}
}

func (a *App) card(job domain.GenerationJob) jobCard {
	c := jobCard{
		ID:       job.ID,
		Status:   string(job.Status),
		Model:    job.Model,
		Created:  lipsync.FormatCreatedAt(job.CreatedAt, a.Location),
		Input:    indentJSON(job.Input),
		Options:  indentJSON(job.Options),
		VideoURL: job.OutputVideo(),
	}
	if c.VideoURL != "" {
		c.DownloadName = job.ID + ".mp4"
	}
	return c
}

func (a *App) render(w http.ResponseWriter, status int, view *dashboardView) {
	var buf bytes.Buffer
	if err := a.page.ExecuteTemplate(&buf, "dashboard.html", view); err != nil {
		a.Logger.Error().Err(err).Msg("dashboard: render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// dashboardPage is lenient: anything that is not a positive integer shows
// the first page.
func dashboardPage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func indentJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}
