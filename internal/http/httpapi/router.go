package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"reelforge/server/internal/http/handlers"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/middleware"
)

// Options carries router configuration beyond the handler set.
type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	StaticDir       string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/providers", app.ProvidersList)

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.GenerationsCreate)
		r.Get("/", app.GenerationsList)
		r.Get("/{id}", app.GenerationStatus)
		r.Get("/{id}/assets", app.GenerationAssets)
	})

	r.Route("/v1/admin/providers/{provider}/key", func(r chi.Router) {
		r.Put("/", app.ProviderKeySet)
		r.Delete("/", app.ProviderKeyDelete)
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
