package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	// StaticDir holds login.html, dashboard.html and their assets.
	// Empty disables static serving.
	StaticDir string

	Logger *slog.Logger
}

// NewRouter constructs the HTTP router: the JSON API under /api, the health
// check, Prometheus metrics and the static front end.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger, s.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware())

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", s.Health)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.NotFound(notFound)
		r.MethodNotAllowed(methodNotAllowed)

		r.Post("/login", s.Login)

		r.Get("/members", s.ListMembers)
		r.Post("/members", s.AddMember)
		r.Get("/members/search", s.SearchMembers)
		r.Put("/members/{id}", s.UpdateMember)
		r.Delete("/members/{id}", s.DeleteMember)

		r.Get("/stats", s.Stats)
	})

	if opts.StaticDir != "" {
		static := staticFiles{dir: opts.StaticDir}
		r.Get("/", static.page("login.html"))
		r.Get("/login.html", static.page("login.html"))
		r.Get("/dashboard.html", static.page("dashboard.html"))
		r.Get("/*", static.file)
	}

	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeFailure(w, http.StatusNotFound, msgPageNotFound)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeFailure(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}
