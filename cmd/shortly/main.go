package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vadimbarashkov/shortly/internal/cache"
	"github.com/vadimbarashkov/shortly/internal/config"
	"github.com/vadimbarashkov/shortly/internal/database/postgres"
	"github.com/vadimbarashkov/shortly/internal/service"
	"github.com/vadimbarashkov/shortly/pkg/retry"

	myhttp "github.com/vadimbarashkov/shortly/internal/api/http"
)

const (
	postgresMaxAttempts = 30
	redisMaxAttempts    = 10
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"), os.Args[1:])
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Env)

	db, err := retry.Connect(ctx, logger.Logger, "postgres", postgresMaxAttempts,
		func(ctx context.Context) (*sqlx.DB, error) {
			return postgres.New(ctx, cfg.Postgres.DSN(),
				postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
				postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
				postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
				postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
			)
		})
	if err != nil {
		return err
	}

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	rdb, err := retry.Connect(ctx, logger.Logger, "redis", redisMaxAttempts,
		func(ctx context.Context) (*redis.Client, error) {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				PoolSize: cfg.Redis.PoolSize,
			})
			if err := client.Ping(ctx).Err(); err != nil {
				client.Close()
				return nil, err
			}
			return client, nil
		})
	if err != nil {
		return err
	}

	urlRepo := postgres.NewURLRepository(db)
	urlCache := cache.New(rdb)
	urlSvc := service.New(urlRepo, urlCache, cfg.BaseURL, logger.Logger)

	r := myhttp.NewRouter(logger, urlSvc, cfg)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", slog.String("addr", server.Addr))

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	g.Go(func() error {
		<-ctx.Done()

		err := db.Close()
		if cerr := rdb.Close(); cerr != nil && err == nil {
			err = cerr
		}
		return err
	})

	return g.Wait()
}

func newLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
	}
	if env == config.EnvProd {
		opts.LogLevel = slog.LevelInfo
		opts.JSON = true
		opts.Concise = false
	}

	return httplog.NewLogger("shortly", opts)
}
