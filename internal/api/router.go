// Package api serves the quiz library over HTTP for local front ends.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quizpulse/quizpulse/internal/library"
)

// MaxBodyBytes caps request bodies, including uploaded question banks.
const MaxBodyBytes = 10 << 20

// Options configures NewRouter.
type Options struct {
	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string

	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration

	Logger *slog.Logger
}

// NewRouter wires the HTTP routes for lib.
func NewRouter(lib *library.Library, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &Handler{lib: lib, log: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/template", h.Template)
	r.Get("/schema", h.Schema)
	r.Post("/validate", h.Validate)

	r.Route("/quizzes", func(r chi.Router) {
		r.Get("/", h.ListQuizzes)
		r.Post("/", h.ImportQuiz)

		r.Route("/{ref}", func(r chi.Router) {
			r.Get("/", h.GetQuiz)
			r.Delete("/", h.DeleteQuiz)
			r.Get("/categories", h.Categories)
			r.Post("/sessions", h.StartSession)
			r.Post("/attempts", h.SubmitAttempt)
			r.Get("/history", h.History)
			r.Get("/history.csv", h.HistoryCSV)
		})
	})

	return r
}

// requestLogger logs one line per request at info level.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
