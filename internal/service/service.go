// Package service contains the orchestration core of the URL shortener: it
// coordinates the persistent store and the cache for creation, resolution and
// statistics, and owns the consistency rules between them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortly/internal/cache"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/internal/shortcode"
)

// ErrMaxRetriesExceeded is returned when the maximum number of retries for
// generating a unique short code is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

const (
	// urlCacheTTL bounds how long a cache entry may outlive its backing
	// record. A freshly expired record can still resolve from cache until
	// this window elapses.
	urlCacheTTL = time.Hour

	// maxExpiryDays clamps client-supplied expirations to ten years so date
	// arithmetic stays well inside the representable range.
	maxExpiryDays = 3650
)

// URLRepository defines the persistent store operations the service relies on.
type URLRepository interface {
	// Create inserts a new shortened URL record.
	Create(ctx context.Context, shortCode, originalURL string, expiresAt *time.Time) (*models.URL, error)

	// GetByShortCode retrieves a live (non-expired) record by its short code.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// IncrementVisits atomically bumps a record's visit counter.
	IncrementVisits(ctx context.Context, id uuid.UUID) error

	// Stats aggregates usage statistics across all records.
	Stats(ctx context.Context) (*models.Stats, error)

	// Ping checks store connectivity.
	Ping(ctx context.Context) error
}

// URLCache defines the read-through cache operations the service relies on.
type URLCache interface {
	// GetURL returns the cached destination for a short code, or
	// cache.ErrMiss for a cold key.
	GetURL(ctx context.Context, shortCode string) (string, error)

	// SetURL stores the destination for a short code with the given TTL.
	SetURL(ctx context.Context, shortCode, originalURL string, ttl time.Duration) error

	// Ping checks cache connectivity.
	Ping(ctx context.Context) error
}

// URLService implements the creation, resolution and statistics operations.
// It is constructed once at startup and shared read-only across all request
// handlers; the only mutable state lives in the pooled store connections
// behind the injected dependencies.
type URLService struct {
	repo    URLRepository
	cache   URLCache
	baseURL string
	logger  *slog.Logger
}

func New(repo URLRepository, cache URLCache, baseURL string, logger *slog.Logger) *URLService {
	return &URLService{
		repo:    repo,
		cache:   cache,
		baseURL: baseURL,
		logger:  logger,
	}
}

// ShortURL composes the public short link for a code.
func (s *URLService) ShortURL(shortCode string) string {
	return s.baseURL + "/" + shortCode
}

// CreateShortURL generates a short code for the original URL, persists the
// record and warms the cache. expiresInDays, when given, is clamped to
// [0, 3650] days.
//
// A cache-population failure after the durable write fails the whole request
// even though the record already exists and remains resolvable through the
// store-fallback path on the next lookup.
func (s *URLService) CreateShortURL(ctx context.Context, originalURL string, expiresInDays *int64) (*models.URL, error) {
	const op = "service.URLService.CreateShortURL"
	const maxRetries = 5

	expiresAt := expiryFromDays(expiresInDays)

	for i := 0; i < maxRetries; i++ {
		code, err := shortcode.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		url, err := s.repo.Create(ctx, code, originalURL, expiresAt)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				s.logger.Warn("short code collision, regenerating",
					slog.String("short_code", code),
					slog.Int("attempt", i+1))
				continue
			}

			return nil, fmt.Errorf("%s: failed to create short url: %w", op, err)
		}

		if err := s.cache.SetURL(ctx, url.ShortCode, url.OriginalURL, urlCacheTTL); err != nil {
			return nil, fmt.Errorf("%s: failed to cache url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode returns the destination URL for a short code.
//
// A cache hit returns immediately and does not touch the visit counter; only
// resolutions that fall through to the store are counted. On a miss the store
// is queried with expired records filtered out, the cache is repopulated and
// the visit counter incremented before the destination is returned.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (string, error) {
	const op = "service.URLService.ResolveShortCode"

	originalURL, err := s.cache.GetURL(ctx, shortCode)
	if err == nil {
		return originalURL, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if err := s.cache.SetURL(ctx, shortCode, url.OriginalURL, urlCacheTTL); err != nil {
		return "", fmt.Errorf("%s: failed to cache url: %w", op, err)
	}

	if err := s.repo.IncrementVisits(ctx, url.ID); err != nil {
		return "", fmt.Errorf("%s: failed to count visit: %w", op, err)
	}

	return url.OriginalURL, nil
}

// Stats reads aggregate usage statistics straight from the persistent store.
// Stats are never cached.
func (s *URLService) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "service.URLService.Stats"

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get stats: %w", op, err)
	}

	return stats, nil
}

// PingDatabase probes the persistent store.
func (s *URLService) PingDatabase(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// PingCache probes the cache.
func (s *URLService) PingCache(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// expiryFromDays converts an optional day count into an absolute expiration
// timestamp, clamping out-of-range values instead of failing the request.
func expiryFromDays(days *int64) *time.Time {
	if days == nil {
		return nil
	}

	d := *days
	if d < 0 {
		d = 0
	}
	if d > maxExpiryDays {
		d = maxExpiryDays
	}

	t := time.Now().UTC().AddDate(0, 0, int(d))
	return &t
}
