package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/linhaiwebs/sync/internal/http/handlers"
	"github.com/linhaiwebs/sync/internal/i18n"
	"github.com/linhaiwebs/sync/internal/infra"
	mw "github.com/linhaiwebs/sync/internal/middleware"
	"github.com/linhaiwebs/sync/internal/storage"
)

type Options struct {
	Logger             *infra.Logger
	Catalog            *i18n.Catalog
	CountryLookup      mw.CountryLookup
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	// MediaRoot, when set, is served under storage.MediaRoutePrefix.
	MediaRoot string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = app.Catalog
	}

	r := chi.NewRouter()
	r.Use(
		mw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		mw.I18N(catalog, opts.CountryLookup),
		mw.Logger(*logger),
	)

	// Every mutating route costs a remote call, so they share one limiter.
	limit := mw.RateLimit(opts.RateLimitPerMinute, time.Minute)

	r.Get("/v1/healthz", app.Health)

	// HTML dashboard
	r.Get("/", app.Dashboard)
	r.With(limit).Post("/jobs", app.SubmitJobForm)
	r.With(limit).Post("/jobs/{id}/delete", app.DeleteJobForm)

	// JSON API
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.CORS(opts.CORSAllowedOrigins))
		r.Get("/options", app.Options)
		r.Get("/jobs", app.ListJobs)
		r.With(limit).Post("/jobs", app.SubmitJob)
		r.With(limit).Delete("/jobs/{id}", app.DeleteJob)
	})

	if opts.MediaRoot != "" {
		files := http.StripPrefix(storage.MediaRoutePrefix, http.FileServer(http.Dir(opts.MediaRoot)))
		r.Get(storage.MediaRoutePrefix+"/*", func(w http.ResponseWriter, req *http.Request) {
			if strings.HasSuffix(req.URL.Path, "/") {
				http.NotFound(w, req)
				return
			}
			files.ServeHTTP(w, req)
		})
	}

	return r
}
