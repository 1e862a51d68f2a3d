package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vadimbarashkov/shortly/internal/cache"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/database/postgres"
	"github.com/vadimbarashkov/shortly/internal/service"
	"github.com/vadimbarashkov/shortly/internal/shortcode"

	"github.com/jmoiron/sqlx"
)

// ServiceIntegrationTestSuite exercises the full create/resolve/stats flow
// against real PostgreSQL and Redis containers.
type ServiceIntegrationTestSuite struct {
	suite.Suite
	db    *sqlx.DB
	rdb   *redis.Client
	repo  *postgres.URLRepository
	cache *cache.Cache
	svc   *service.URLService
}

func (suite *ServiceIntegrationTestSuite) SetupSuite() {
	if testing.Short() {
		suite.T().Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shortly"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		suite.T().Fatalf("failed to start postgres container: %v", err)
	}
	suite.T().Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		suite.T().Fatalf("failed to get postgres connection string: %v", err)
	}

	suite.db, err = postgres.New(ctx, dsn)
	if err != nil {
		suite.T().Fatalf("failed to connect to postgres: %v", err)
	}
	suite.T().Cleanup(func() {
		suite.db.Close()
	})

	if err := postgres.RunMigrations(suite.db); err != nil {
		suite.T().Fatalf("failed to run migrations: %v", err)
	}

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		suite.T().Fatalf("failed to start redis container: %v", err)
	}
	suite.T().Cleanup(func() {
		_ = redisContainer.Terminate(context.Background())
	})

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		suite.T().Fatalf("failed to get redis endpoint: %v", err)
	}

	suite.rdb = redis.NewClient(&redis.Options{Addr: endpoint})
	suite.T().Cleanup(func() {
		suite.rdb.Close()
	})

	suite.repo = postgres.NewURLRepository(suite.db)
	suite.cache = cache.New(suite.rdb)
	suite.svc = service.New(suite.repo, suite.cache, "http://localhost:8080",
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (suite *ServiceIntegrationTestSuite) TearDownSubTest() {
	ctx := context.Background()

	if _, err := suite.db.ExecContext(ctx, `TRUNCATE TABLE urls`); err != nil {
		suite.T().Fatalf("failed to clean urls table: %v", err)
	}
	if err := suite.rdb.FlushAll(ctx).Err(); err != nil {
		suite.T().Fatalf("failed to flush redis: %v", err)
	}
}

func (suite *ServiceIntegrationTestSuite) TestCreateAndResolve() {
	ctx := context.Background()

	suite.Run("round trip preserves the url exactly", func() {
		url, err := suite.svc.CreateShortURL(ctx, "https://example.com", nil)

		suite.Require().NoError(err)
		suite.Len(url.ShortCode, shortcode.Length)
		suite.Equal(int64(0), url.Visits)
		suite.Nil(url.ExpiresAt)

		resolved, err := suite.svc.ResolveShortCode(ctx, url.ShortCode)

		suite.NoError(err)
		suite.Equal("https://example.com", resolved)
	})

	suite.Run("unknown code is not found", func() {
		_, err := suite.svc.ResolveShortCode(ctx, "nosuch01")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
	})

	suite.Run("cache hit does not count a visit", func() {
		url, err := suite.svc.CreateShortURL(ctx, "https://example.com", nil)
		suite.Require().NoError(err)

		// Creation warmed the cache, so this resolution is a hit.
		_, err = suite.svc.ResolveShortCode(ctx, url.ShortCode)
		suite.Require().NoError(err)

		stored, err := suite.repo.GetByShortCode(ctx, url.ShortCode)
		suite.Require().NoError(err)
		suite.Equal(int64(0), stored.Visits)
	})

	suite.Run("cache-cold resolution counts exactly one visit", func() {
		url, err := suite.svc.CreateShortURL(ctx, "https://example.com", nil)
		suite.Require().NoError(err)

		suite.Require().NoError(suite.rdb.FlushAll(ctx).Err())

		_, err = suite.svc.ResolveShortCode(ctx, url.ShortCode)
		suite.Require().NoError(err)

		stored, err := suite.repo.GetByShortCode(ctx, url.ShortCode)
		suite.Require().NoError(err)
		suite.Equal(int64(1), stored.Visits)

		// Warm now; a second resolution must not increment.
		_, err = suite.svc.ResolveShortCode(ctx, url.ShortCode)
		suite.Require().NoError(err)

		stored, err = suite.repo.GetByShortCode(ctx, url.ShortCode)
		suite.Require().NoError(err)
		suite.Equal(int64(1), stored.Visits)
	})
}

func (suite *ServiceIntegrationTestSuite) TestExpiration() {
	ctx := context.Background()

	suite.Run("expired records resolve only through the cache window", func() {
		days := int64(0)
		url, err := suite.svc.CreateShortURL(ctx, "https://example.com", &days)

		suite.Require().NoError(err)
		suite.Require().NotNil(url.ExpiresAt)

		// The record is already expired in the store, but the creation-time
		// cache entry still serves it.
		resolved, err := suite.svc.ResolveShortCode(ctx, url.ShortCode)
		suite.NoError(err)
		suite.Equal("https://example.com", resolved)

		// Once the cache entry is gone the store filter applies.
		suite.Require().NoError(suite.rdb.FlushAll(ctx).Err())

		_, err = suite.svc.ResolveShortCode(ctx, url.ShortCode)
		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
	})

	suite.Run("huge expiration is clamped, not rejected", func() {
		days := int64(100000)
		url, err := suite.svc.CreateShortURL(ctx, "https://example.com", &days)

		suite.Require().NoError(err)
		suite.Require().NotNil(url.ExpiresAt)
		suite.True(url.ExpiresAt.Before(time.Now().AddDate(10, 0, 1)))
	})
}

func (suite *ServiceIntegrationTestSuite) TestStats() {
	ctx := context.Background()

	suite.Run("aggregates totals and ranks by visits", func() {
		first, err := suite.svc.CreateShortURL(ctx, "https://example.com", nil)
		suite.Require().NoError(err)
		_, err = suite.svc.CreateShortURL(ctx, "https://another-example.com", nil)
		suite.Require().NoError(err)

		const visits = 3
		for i := 0; i < visits; i++ {
			suite.Require().NoError(suite.rdb.FlushAll(ctx).Err())
			_, err = suite.svc.ResolveShortCode(ctx, first.ShortCode)
			suite.Require().NoError(err)
		}

		stats, err := suite.svc.Stats(ctx)

		suite.Require().NoError(err)
		suite.Equal(int64(2), stats.TotalURLs)
		suite.Equal(int64(visits), stats.TotalVisits)
		suite.Require().NotEmpty(stats.URLs)
		suite.Equal(first.ShortCode, stats.URLs[0].ShortCode)
		suite.Equal(int64(visits), stats.URLs[0].Visits)
	})
}

func TestServiceIntegration(t *testing.T) {
	suite.Run(t, new(ServiceIntegrationTestSuite))
}
