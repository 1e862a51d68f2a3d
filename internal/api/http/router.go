package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortly/internal/config"
	"github.com/vadimbarashkov/shortly/internal/models"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// CreateShortURL persists a new shortened URL and warms the cache.
	CreateShortURL(ctx context.Context, originalURL string, expiresInDays *int64) (*models.URL, error)

	// ShortURL composes the public short link for a code.
	ShortURL(shortCode string) string

	// ResolveShortCode returns the destination URL for a short code.
	ResolveShortCode(ctx context.Context, shortCode string) (string, error)

	// Stats reports aggregate usage statistics.
	Stats(ctx context.Context) (*models.Stats, error)

	// PingDatabase and PingCache probe the two backing stores independently.
	PingDatabase(ctx context.Context) error
	PingCache(ctx context.Context) error
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes the HTTP router with all routes and middleware
// configured. The router is thin plumbing around the service: it decodes
// requests, maps typed service errors to statuses and renders responses.
func NewRouter(logger *httplog.Logger, urlSvc URLService, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.AllowContentType("application/json")).
			Post("/urls", handleCreateShortURL(urlSvc, validate, cfg.Env))

		r.With(apiKeyAuth(cfg.APIKey)).
			Get("/stats", handleStats(urlSvc, cfg.Env))
	})

	r.Get("/health", handleHealth(urlSvc))
	r.Get("/{shortCode}", handleRedirect(urlSvc, cfg.Env))

	return r
}
