// Package server exposes the public HTTP API consumed by the storefront:
// analyze, re-estimate, lead submission, spot prices, and the recent-quotes
// feed.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/snappy-gold/appraisal-api/internal/appraise"
	"github.com/snappy-gold/appraisal-api/internal/lead"
	"github.com/snappy-gold/appraisal-api/internal/pricing"
	"github.com/snappy-gold/appraisal-api/internal/store"
)

// Options tunes server behavior. Zero values take the defaults below.
type Options struct {
	AllowedOrigins  []string
	AnalyzesPerDay  int
	SessionTTL      time.Duration
	MaxImageBytes   int64
	MaxImagesPerReq int
}

func (o *Options) fill() {
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	if o.AnalyzesPerDay <= 0 {
		o.AnalyzesPerDay = 10
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = time.Hour
	}
	if o.MaxImageBytes <= 0 {
		o.MaxImageBytes = 10 << 20
	}
	if o.MaxImagesPerReq <= 0 {
		o.MaxImagesPerReq = 5
	}
}

// Server holds the wired dependencies behind the HTTP API.
type Server struct {
	runner   appraise.Runner
	spots    *pricing.Cache
	store    store.Store
	relay    *lead.Relay
	sessions *sessionRegistry
	limiter  *ipLimiter
	opts     Options
}

// New creates a Server. Call Close on shutdown to stop the session janitor.
func New(runner appraise.Runner, spots *pricing.Cache, st store.Store, relay *lead.Relay, opts Options) *Server {
	opts.fill()
	return &Server{
		runner:   runner,
		spots:    spots,
		store:    st,
		relay:    relay,
		sessions: newSessionRegistry(opts.SessionTTL),
		limiter:  newIPLimiter(opts.AnalyzesPerDay),
		opts:     opts,
	}
}

// Close stops background maintenance.
func (s *Server) Close() {
	s.sessions.stop()
	s.limiter.stop()
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/spot-prices", s.handleSpotPrices)
		r.Get("/recent-quotes", s.handleRecentQuotes)
		r.With(s.analyzeRateLimit).Post("/analyze", s.handleAnalyze)
		r.Post("/reestimate", s.handleReestimate)
		r.Post("/submit-lead", s.handleSubmitLead)
	})

	return r
}

// requestLogger logs one line per request with the zap global, mirroring what
// the rest of the codebase does instead of chi's default stdlib logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
