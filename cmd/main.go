package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"

	"github.com/okian/rks/internal/adapters/http/api"
	"github.com/okian/rks/internal/adapters/http/swagger"
	"github.com/okian/rks/internal/adapters/publish"
	"github.com/okian/rks/internal/adapters/repository"
	service "github.com/okian/rks/internal/app"
	"github.com/okian/rks/internal/config"
	"github.com/okian/rks/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 35 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	storeOpenTimeout  = 10 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("rks: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithStore(store),
		service.WithFetchConcurrency(cfg.FetchConcurrency),
		service.WithFetchTimeout(cfg.FetchTimeout()),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithRatingCache(cfg.RatingCache),
	}
	if pub := newPublisher(cfg); pub != nil {
		log.Info(ctx, "publishing leaderboard snapshots", logger.String("redis_addr", cfg.RedisAddr), logger.String("key", cfg.RedisKey))
		opts = append(opts, service.WithPublisher(pub))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openStore builds the configured score store.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repository.NewMemoryStore(), nil
	case config.DriverSQLite, config.DriverPostgres:
		openCtx, cancel := context.WithTimeout(ctx, storeOpenTimeout)
		defer cancel()
		return repository.OpenSQL(openCtx, cfg.StoreDriver, cfg.StoreDSN)
	default:
		return nil, fmt.Errorf("%w: %s", repository.ErrUnsupportedStore, cfg.StoreDriver)
	}
}

// newPublisher returns nil when no Redis address is configured.
func newPublisher(cfg *config.Config) publish.Publisher {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return publish.NewRedisPublisher(client, cfg.RedisKey)
}

func newRouter(ctx context.Context, cfg *config.Config, svc *service.Service) http.Handler {
	r := chi.NewRouter()
	swagger.Register(ctx, r)
	api.NewServer(svc, api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit)).Register(ctx, r)
	return r
}
