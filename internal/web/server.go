// Package web serves the download form and streams download progress to browsers over a WebSocket.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-grabber"
	"github.com/alanbriolat/video-grabber/internal/broadcast"
	"github.com/alanbriolat/video-grabber/internal/platform"
	"github.com/alanbriolat/video-grabber/internal/session"
	"github.com/alanbriolat/video-grabber/provider/youtube"
)

//go:embed templates static
var assets embed.FS

var templates = template.Must(template.ParseFS(assets, "templates/*.html"))

type config struct {
	addr           string
	workDir        string
	resolver       *platform.Resolver
	registry       *video_grabber.ProviderRegistry
	sessions       *session.Store
	layer          *broadcast.Layer
	downloadConfig video_grabber.DownloadConfig
	httpClient     *http.Client
}

type Option func(*config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWorkDir sets where POST downloads are saved.
func WithWorkDir(dir string) Option {
	return func(c *config) {
		c.workDir = dir
	}
}

// WithResolver sets how the GET download directory is chosen.
func WithResolver(r *platform.Resolver) Option {
	return func(c *config) {
		c.resolver = r
	}
}

func WithProviderRegistry(r *video_grabber.ProviderRegistry) Option {
	return func(c *config) {
		c.registry = r
	}
}

func WithSessions(s *session.Store) Option {
	return func(c *config) {
		c.sessions = s
	}
}

// WithLayer sets the broadcast layer progress is published to and read from.
func WithLayer(l *broadcast.Layer) Option {
	return func(c *config) {
		c.layer = l
	}
}

func WithDownloadConfig(dc video_grabber.DownloadConfig) Option {
	return func(c *config) {
		c.downloadConfig = dc
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// NewProviderRegistry returns the providers the web form accepts: YouTube only. Other providers would have the
// server fetch arbitrary client-supplied URLs.
func NewProviderRegistry() *video_grabber.ProviderRegistry {
	registry := &video_grabber.ProviderRegistry{}
	registry.MustAdd(youtube.New())
	return registry
}

type Server struct {
	*http.Server
}

func NewServer(ctx context.Context, opts ...Option) (*Server, error) {
	cfg := &config{
		addr:           "localhost:8000",
		workDir:        ".",
		registry:       NewProviderRegistry(),
		downloadConfig: video_grabber.NewDownloadConfig(),
		httpClient:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.resolver == nil {
		cfg.resolver = platform.NewResolver("")
	}
	if cfg.layer == nil {
		cfg.layer = broadcast.NewLayer()
	}
	if cfg.sessions == nil {
		sessions, err := session.New(session.DefaultConfig)
		if err != nil {
			return nil, err
		}
		cfg.sessions = sessions
	}

	logger := video_grabber.Logger(ctx)
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(logger))
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	router.Handle("/progress/", newProgressHandler(cfg, logger))
	router.Handle("/", newHomeHandler(cfg, logger))

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		},
	}
	return server, nil
}

// LoggingMiddleware logs each request once it has been handled.
func LoggingMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	log := logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info("HTTP request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

type healthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(&healthStatus{Status: "healthy", Service: "video-grabber"}); err != nil {
		video_grabber.Logger(r.Context()).Sugar().Errorf("failed to encode health response: %v", err)
	}
}
