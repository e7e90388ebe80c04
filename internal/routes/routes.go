package routes

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/handlers"
	"github.com/AnshRaj112/commentwall-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the handlers and policies the router is built from.
type Deps struct {
	Auth     *handlers.AuthHandler
	Comments *handlers.CommentHandler
	Feed     *handlers.FeedHandler
	SPA      *handlers.SPA
	Health   handlers.Pinger

	// RequireAuth guards authenticated comment posting.
	RequireAuth func(http.Handler) http.Handler
	// RequireAdmin guards the full listing. Nil leaves it public.
	RequireAdmin func(http.Handler) http.Handler

	AllowedOrigins []string
	// Security is prepended in production (headers, per-IP limit).
	Security []func(http.Handler) http.Handler
	// AuthLimit throttles login and register. Nil disables it.
	AuthLimit func(http.Handler) http.Handler

	HealthTimeout time.Duration
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.Metrics)
	for _, mw := range d.Security {
		r.Use(mw)
	}
	r.Use(middleware.CORS(d.AllowedOrigins))

	r.NotFound(d.SPA.NotFound)
	r.MethodNotAllowed(d.SPA.NotFound)

	r.Get("/health", handlers.Health(d.Health, d.HealthTimeout))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/comments", d.Feed.Serve)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.AuthLimit != nil {
				r.Use(d.AuthLimit)
			}
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
		})
		r.Post("/logout", d.Auth.Logout)
		r.Get("/user", d.Auth.CurrentUser)
	})

	r.Route("/api/comments", func(r chi.Router) {
		r.Get("/latest", d.Comments.Latest)
		r.Get("/count", d.Comments.Count)
		r.Post("/", d.Comments.PostAnonymous)

		r.Group(func(r chi.Router) {
			r.Use(d.RequireAuth)
			r.Post("/postcomments", d.Comments.Post)
		})

		r.Group(func(r chi.Router) {
			if d.RequireAdmin != nil {
				r.Use(d.RequireAuth, d.RequireAdmin)
			}
			r.Get("/allcomments", d.Comments.All)
		})
	})

	return r
}
