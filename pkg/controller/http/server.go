package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr        string
	gitlabToken string
	maxBodySize int64
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithGitLabToken sets the shared secret GitLab sends in X-Gitlab-Token
func WithGitLabToken(token string) Option {
	return func(c *config) {
		c.gitlabToken = token
	}
}

// WithMaxBodySize limits the webhook payload size in bytes
func WithMaxBodySize(size int64) Option {
	return func(c *config) {
		c.maxBodySize = size
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	webhookUC interfaces.WebhookUseCase,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr:        "localhost:8080",
		maxBodySize: 1 << 20,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)

	webhookHandler := NewWebhookHandler(cfg.gitlabToken, webhookUC, cfg.maxBodySize)
	router.Post("/webhook", webhookHandler.Handle)
	// path used by existing GitLab webhook configurations
	router.Post("/webformgithubbridge", webhookHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
