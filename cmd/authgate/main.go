// @title                       authgate
// @version                     1.0
// @description                 Authentication gate backed by a remote identity service.
// @BasePath                    /
// @securityDefinitions.apikey  TokenHeader
// @in                          header
// @name                        X-Authentication
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mardens/authgate/internal/api"
	"github.com/mardens/authgate/internal/api/handler"
	"github.com/mardens/authgate/internal/api/middleware"
	"github.com/mardens/authgate/internal/core/ports"
	"github.com/mardens/authgate/internal/core/service"
	"github.com/mardens/authgate/internal/infrastructure/config"
	mongodb "github.com/mardens/authgate/internal/infrastructure/db/mongo"
	redisdb "github.com/mardens/authgate/internal/infrastructure/db/redis"
	"github.com/mardens/authgate/internal/infrastructure/identity"
	"github.com/mardens/authgate/internal/infrastructure/queue"
	"github.com/mardens/authgate/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "authgate",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("authgate stopped with error")
	}
	log.Info().Msg("authgate stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	idp, err := identity.NewClient(identity.Config{
		BaseURL:            cfg.Identity.BaseURL,
		Timeout:            cfg.Identity.Timeout,
		InsecureSkipVerify: cfg.Identity.InsecureSkipVerify,
	}, logger.Component("identity"))
	if err != nil {
		return err
	}

	deps := api.Deps{
		Identity: idp,
		Gate: middleware.GateOptions{
			Source:               middleware.TokenSource{Header: cfg.Auth.Header, Cookie: cfg.Auth.Cookie},
			DefaultUserAgent:     cfg.Identity.UserAgent,
			ExposeUpstreamErrors: cfg.Auth.ExposeUpstreamErrors,
		},
		Cookie: handler.CookieOptions{Name: cfg.Auth.Cookie, Secure: !cfg.IsDevelopment()},
		Log:    log,
	}

	var cache ports.TokenCache
	if cfg.CacheEnabled() {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		deps.Redis = rdb
		cache = redisdb.NewTokenCache(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TokenTTL).Msg("token cache enabled")
	}

	var dispatcher *queue.Dispatcher
	if cfg.AuditEnabled() {
		mc, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Workers:  cfg.Mongo.AuditWorkers,
		})
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mc.Disconnect(disconnectCtx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}()

		repo := mongodb.NewAuditRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		dispatcher = queue.NewDispatcher(cfg.Mongo.AuditWorkers, repo, log)
		dispatcher.Start()

		deps.Mongo = mc
		deps.Audit = dispatcher
		deps.AuditReader = repo
		log.Info().Str("database", cfg.Mongo.Database).Int("workers", cfg.Mongo.AuditWorkers).Msg("audit trail enabled")
	}

	deps.AuthService = service.NewAuthService(idp, cache, cfg.Redis.TokenTTL, logger.Component("auth_service"))
	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("identity", cfg.Identity.BaseURL).Msg("authgate started")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if dispatcher != nil {
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("audit queue not fully drained")
		}
	}
	return nil
}
