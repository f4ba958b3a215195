package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/wefixit/wefixit-backend/internal/handlers"
	"github.com/wefixit/wefixit-backend/internal/metrics"
	"github.com/wefixit/wefixit-backend/internal/middleware"
)

// Deps is everything the route table hands requests to.
type Deps struct {
	Auth      *handlers.AuthHandler
	Contacts  *handlers.ContactHandler
	Quotes    *handlers.QuoteHandler
	Portfolio *handlers.PortfolioHandler
	Reviews   *handlers.ReviewHandler
	Projects  *handlers.ProjectHandler
	Events    *handlers.EventsHandler
	System    *handlers.SystemHandler

	Gate         *middleware.AuthGate
	LoginLimiter middleware.LoginLimiter
	// Submissions throttles the public forms. Nil disables it.
	Submissions func(http.Handler) http.Handler
	Metrics     *metrics.Metrics

	// UploadDir is served at /uploads/ when images are stored locally.
	UploadDir string
	Logger    *logrus.Logger
}

func SetupRoutes(r chi.Router, d Deps) {
	admin := d.Gate.RequireAdmin
	submissions := d.Submissions
	if submissions == nil {
		submissions = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/", d.System.Root)
	r.Get("/health", d.System.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	if d.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", staticFiles(d.UploadDir)))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/db-check", d.System.DBCheck)

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.LoginGuard(d.LoginLimiter, d.Logger)).Post("/login", d.Auth.Login)
			r.With(admin).Get("/me", d.Auth.Me)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.With(submissions).Post("/", d.Contacts.Submit)
			r.With(admin).Get("/", d.Contacts.List)
			r.With(admin).Put("/{id}/read", d.Contacts.MarkRead)
			r.With(admin).Delete("/{id}", d.Contacts.Delete)
		})

		r.Route("/quotes", func(r chi.Router) {
			r.With(submissions).Post("/", d.Quotes.Submit)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/", d.Quotes.List)
				r.Delete("/{id}", d.Quotes.Delete)
				r.Post("/{id}/reply", d.Quotes.Reply)
				r.Delete("/{id}/reply/{ref}", d.Quotes.DeleteReply)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", d.Portfolio.List)
			r.Get("/{id}", d.Portfolio.Get)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", d.Portfolio.Create)
				r.Put("/{id}", d.Portfolio.Update)
				r.Delete("/{id}", d.Portfolio.Delete)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.With(submissions).Post("/", d.Reviews.Submit)
			r.Get("/", d.Reviews.ListApproved)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/all", d.Reviews.ListAll)
				r.Put("/{id}/approve", d.Reviews.Approve)
				r.Delete("/{id}", d.Reviews.Delete)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", d.Projects.List)
			r.With(admin).Get("/all", d.Projects.ListAll)
			r.Get("/{id}", d.Projects.Get)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", d.Projects.Create)
				r.Put("/{id}", d.Projects.Update)
				r.Delete("/{id}", d.Projects.Delete)
			})
		})

		r.With(d.Gate.RequireAdminQuery).Get("/admin/events", d.Events.Stream)
	})
}

// staticFiles serves files from dir without directory listings.
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
