package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/UzukeeIA/ROBUXFREE/internal/api"
	"github.com/UzukeeIA/ROBUXFREE/internal/api/middleware"
	"github.com/UzukeeIA/ROBUXFREE/internal/app/service"
	"github.com/UzukeeIA/ROBUXFREE/internal/app/session"
	"github.com/UzukeeIA/ROBUXFREE/internal/app/worker"
	"github.com/UzukeeIA/ROBUXFREE/internal/common/security"
	"github.com/UzukeeIA/ROBUXFREE/internal/domain/repository"
	"github.com/UzukeeIA/ROBUXFREE/internal/logging"
	"github.com/UzukeeIA/ROBUXFREE/internal/platform/avatar"
	"github.com/UzukeeIA/ROBUXFREE/internal/platform/cache"
	"github.com/UzukeeIA/ROBUXFREE/internal/platform/config"
	"github.com/UzukeeIA/ROBUXFREE/internal/platform/database"
	"github.com/UzukeeIA/ROBUXFREE/internal/platform/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New("avatar-survey", cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Record store
	recordStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer recordStore.Close()
	logger.Info("record store ready", "driver", cfg.StoreDriver)

	// 2. Sessions and rate limiting, in Redis when configured
	var (
		sessions session.Store
		limiter  middleware.RateLimiter
		rdb      *redis.Client
	)
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	if cfg.UsesRedis() {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		limiter = middleware.NewRedisRateLimiter(rdb, logger)
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	} else {
		memSessions := session.NewMemoryStore(cfg.SessionTTL)
		sessions = memSessions
		limiter = middleware.NewMemoryRateLimiter()
		go worker.NewSessionSweeper(memSessions, 0, logger).Start(workerCtx)
	}
	defer limiter.Close()

	// 3. Upstream avatar API
	avatarClient, err := avatar.NewClient(cfg.AvatarUsersAPIURL, cfg.AvatarThumbnailsAPIURL, cfg.AvatarTimeout)
	if err != nil {
		return err
	}

	// 4. Repositories and services
	userRepo := repository.NewUserRepository(recordStore)
	responseRepo := repository.NewResponseRepository(recordStore)
	loginRepo := repository.NewLoginRecordRepository(recordStore)

	authService := service.NewAuthService(userRepo, logger)
	avatarService := service.NewAvatarService(avatarClient, logger)
	collectionService := service.NewCollectionService(responseRepo, loginRepo, logger)

	// 5. Router & HTTP server
	router := api.NewRouter(api.RouterDeps{
		AuthService:       authService,
		AvatarService:     avatarService,
		CollectionService: collectionService,
		Sessions:          sessions,
		Issuer:            security.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL),
		Limiter:           limiter,
		Metrics:           middleware.NewMetrics(),
		Logger:            logger,
		SecureCookie:      cfg.CookieSecure,
		TrustProxy:        cfg.TrustProxy,
		AuthRateLimit:     cfg.AuthRateLimit,
		AuthRateWindow:    cfg.AuthRateWindow,
	})

	server := newHTTPServer(cfg.APIPort, router)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 6. Graceful shutdown
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func newHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: api.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// openStore builds the record store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (store.RecordStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverJSON:
		return store.NewJSONFileStore(cfg.DataDir)
	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return migrated(ctx, store.NewSQLStore(db, store.DialectSQLite))
	case config.StoreDriverPostgres:
		db, err := database.ConnectPostgres(ctx, cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		return migrated(ctx, store.NewSQLStore(db, store.DialectPostgres))
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func migrated(ctx context.Context, s *store.SQLStore) (store.RecordStore, error) {
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
