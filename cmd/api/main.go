// Command api serves the Globely REST API.
//
// @title                       Globely API
// @version                     1.0
// @description                 Accounts and favorite countries for the Globely country explorer.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/globely/globely-api/internal/api"
	"github.com/globely/globely-api/internal/core/ports"
	"github.com/globely/globely-api/internal/core/service"
	"github.com/globely/globely-api/internal/infrastructure/config"
	mongostore "github.com/globely/globely-api/internal/infrastructure/db/mongo"
	"github.com/globely/globely-api/internal/infrastructure/db/memory"
	redisstore "github.com/globely/globely-api/internal/infrastructure/db/redis"
	"github.com/globely/globely-api/internal/infrastructure/http/handlers"
	"github.com/globely/globely-api/internal/infrastructure/token"
	"github.com/globely/globely-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "globely-api",
	})

	checks := make(map[string]handlers.CheckFunc)

	// --- Store ---
	var repo ports.UserRepository
	switch cfg.StoreDriver {
	case config.StoreMemory:
		mem := memory.NewUserRepository()
		checks["store"] = mem.Ping
		repo = mem
		log.Warn().Msg("using in-memory store; data is lost on restart")
	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "globely-api",
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		}()

		users := mongostore.NewUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		checks["mongodb"] = handlers.MongoCheck(client)
		repo = users
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	}

	// --- Token codec ---
	codec, err := token.NewCodec(cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		return err
	}

	// --- Services ---
	var accountOpts []service.AccountOption
	if cfg.Redis.Enabled {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		limiter := redisstore.NewLoginLimiter(rdb, redisstore.LimiterConfig{
			MaxAttempts: cfg.Login.MaxAttempts,
			Window:      cfg.Login.LockoutWindow,
		}, log)
		accountOpts = append(accountOpts, service.WithLoginLimiter(limiter))
		checks["redis"] = handlers.RedisCheck(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login limiter enabled")
	}

	accounts := service.NewAccountService(repo, codec, log.With().Str("component", "accounts").Logger(), accountOpts...)
	favorites := service.NewFavoriteService(repo, log.With().Str("component", "favorites").Logger())

	e, err := api.NewRouter(api.Deps{
		Accounts:      accounts,
		Favorites:     favorites,
		Tokens:        codec,
		Readiness:     checks,
		Registerer:    prometheus.DefaultRegisterer,
		Gatherer:      prometheus.DefaultGatherer,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		AuthRateLimit: cfg.HTTP.AuthRateLimit,
		Log:           log,
	})
	if err != nil {
		return err
	}

	return serve(ctx, e, ":"+cfg.Port, cfg, log)
}

type server interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

func serve(ctx context.Context, srv server, addr string, cfg *config.Config, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
