// Package api provides the sermonrefs REST and WebSocket server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/FocuswithJustin/sermonrefs/core/extract"
	"github.com/FocuswithJustin/sermonrefs/core/merge"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/core/sqlite"
	"github.com/FocuswithJustin/sermonrefs/internal/cache"
	"github.com/FocuswithJustin/sermonrefs/internal/importer"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
	"github.com/FocuswithJustin/sermonrefs/internal/resolver"
	"github.com/FocuswithJustin/sermonrefs/internal/server"
)

// Config holds server configuration.
type Config struct {
	Port int

	// Translation is used when a request names none.
	Translation string

	// MergeOrder is the default order for /merge and /resolve.
	MergeOrder merge.Order

	RateLimitRequests int // requests per minute, 0 disables limiting
	RateLimitBurst    int

	// AllowedOrigins restricts CORS and WebSocket origins; empty allows all.
	AllowedOrigins []string

	// MaxBodyBytes bounds request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	WebSocket WebSocketConfig

	Version string
}

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 16 << 20

// countTTL is how long verse counts are served from memory.
const countTTL = 30 * time.Second

// VerseStore is the storage the server reads and imports into.
// *store.Store satisfies it.
type VerseStore interface {
	resolver.VerseSource
	Put(ctx context.Context, translation string, verses []scripture.Verse) (int, error)
	Count(ctx context.Context, translation string) (int, error)
	Translations(ctx context.Context) ([]string, error)
}

// Server serves the API. Build one with New.
type Server struct {
	cfg       Config
	store     VerseStore
	canon     *scripture.Canon
	extractor *extract.Extractor
	importer  *importer.Importer
	jobs      *JobStore
	hub       *Hub
	limiter   *RateLimiter // nil when limiting is off
	counts    *cache.TTLCache[string, int]
	started   time.Time
}

// New returns a Server over store using the default canon.
func New(cfg Config, store VerseStore) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Translation == "" {
		cfg.Translation = "KJV"
	}
	cfg.WebSocket = cfg.WebSocket.withDefaults()

	var limiter *RateLimiter
	if cfg.RateLimitRequests > 0 {
		if cfg.RateLimitBurst <= 0 {
			cfg.RateLimitBurst = 10
		}
		limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		})
	}

	canon := scripture.DefaultCanon()
	return &Server{
		cfg:       cfg,
		store:     store,
		canon:     canon,
		extractor: extract.Default(),
		importer:  importer.New(canon),
		jobs:      NewJobStore(),
		hub:       NewHub(),
		limiter:   limiter,
		counts:    cache.New[string, int](countTTL),
		started:   time.Now(),
	}
}

// count returns the number of stored verses in translation, or in all
// translations when it is empty.
func (s *Server) count(ctx context.Context, translation string) (int, error) {
	return s.counts.GetOrLoad(translation, func() (int, error) {
		return s.store.Count(ctx, translation)
	})
}

// Routes returns the bare route table without middleware.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /books", s.handleBooks)
	mux.HandleFunc("GET /translations", s.handleTranslations)
	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("POST /parse", s.handleParse)
	mux.HandleFunc("POST /merge", s.handleMerge)
	mux.HandleFunc("POST /resolve", s.handleResolve)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("GET /jobs", s.handleJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleJob)
	mux.HandleFunc("DELETE /jobs/{id}", s.handleCancelJob)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("/", handleNotFound)

	return mux
}

// Handler returns the routes wrapped in the middleware chain: logging,
// CORS, rate limiting and security headers, outermost first.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = server.SecurityHeaders(server.APICSPConfig(), s.Routes())

	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
		logging.Info("rate limiting enabled",
			"requests_per_minute", s.cfg.RateLimitRequests,
			"burst_size", s.cfg.RateLimitBurst)
	}

	handler = server.CORSMiddleware(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*)")
	}

	return logging.CombinedMiddleware(handler)
}

// ListenAndServe serves on cfg.Port until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)
	if s.limiter != nil {
		go s.limiter.Cleanup(ctx, time.Minute)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logging.ServerStartup("rest_api", "http", s.cfg.Port,
		"websocket_protocol", "ws",
		"sqlite_driver", sqlite.DriverName(),
		"translation", s.cfg.Translation)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	s.jobs.CancelAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logging.Info("server stopped")
	return nil
}
