package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"posterlab/internal/http/handlers"
	"posterlab/internal/middleware"
)

// NewRouter wires the HTTP surface. lookup is the optional GeoIP resolver
// feeding locale detection and request logs; nil disables IP-based lookups.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Locale(lookup),
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/posters", func(r chi.Router) {
		limit := app.Config.RateLimitPerMin
		if limit <= 0 {
			limit = 30
		}
		r.With(middleware.RateLimit(limit, time.Minute)).Post("/", app.PostersCreate)
		r.Get("/", app.PostersList)
		r.Get("/{job_id}", app.PosterStatus)
		r.Get("/{job_id}/archive", app.PosterArchive)
	})

	// The voting surface only mounts when a database is configured.
	if app.SQL != nil {
		r.Route("/v1/meetings", func(r chi.Router) {
			r.Post("/", app.MeetingsCreate)
			r.Get("/", app.MeetingsList)
			r.Get("/{slug}", app.MeetingGet)
			r.Patch("/{slug}", app.MeetingUpdate)
		})
		r.Route("/v1/votes", func(r chi.Router) {
			r.Post("/", app.VotesCreate)
			r.Get("/check", app.VoteCheck)
			r.Get("/results", app.VoteResults)
		})
	}

	return r
}
