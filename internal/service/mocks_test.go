package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortly/internal/models"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, shortCode, originalURL string, expiresAt *time.Time) (*models.URL, error) {
	args := r.Called(ctx, shortCode, originalURL, expiresAt)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) IncrementVisits(ctx context.Context, id uuid.UUID) error {
	args := r.Called(ctx, id)
	return args.Error(0)
}

func (r *MockURLRepository) Stats(ctx context.Context) (*models.Stats, error) {
	args := r.Called(ctx)
	stats, _ := args.Get(0).(*models.Stats)
	return stats, args.Error(1)
}

func (r *MockURLRepository) Ping(ctx context.Context) error {
	args := r.Called(ctx)
	return args.Error(0)
}

type MockURLCache struct {
	mock.Mock
}

func (c *MockURLCache) GetURL(ctx context.Context, shortCode string) (string, error) {
	args := c.Called(ctx, shortCode)
	return args.String(0), args.Error(1)
}

func (c *MockURLCache) SetURL(ctx context.Context, shortCode, originalURL string, ttl time.Duration) error {
	args := c.Called(ctx, shortCode, originalURL, ttl)
	return args.Error(0)
}

func (c *MockURLCache) Ping(ctx context.Context) error {
	args := c.Called(ctx)
	return args.Error(0)
}
