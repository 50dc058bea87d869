// @title                       Auth Service API
// @version                     1.0
// @description                 Registration, login and JWT issuance for the platform.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	_ "github.com/jyotish/auth-service/docs"
	"github.com/jyotish/auth-service/internal/api"
	"github.com/jyotish/auth-service/internal/api/handler"
	"github.com/jyotish/auth-service/internal/core/service"
	mongodb "github.com/jyotish/auth-service/internal/infrastructure/db/mongo"
	redisdb "github.com/jyotish/auth-service/internal/infrastructure/db/redis"
	"github.com/jyotish/auth-service/internal/infrastructure/queue"
	"github.com/jyotish/auth-service/internal/pkg/config"
	"github.com/jyotish/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "auth-service"})
		l := logger.Get()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auth-service",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "auth-service",
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	accounts := mongodb.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	cached := redisdb.NewCachedAccountRepository(accounts, rdb, cfg.Redis.CacheTTL, logger.Component("account_cache"))

	amqpPublisher := queue.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger.Component("amqp"))
	defer amqpPublisher.Close()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.AMQP.Workers, amqpPublisher, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)
	defer func() {
		cancelWorkers()
		dispatcher.Wait()
	}()

	tokens, err := service.NewTokenCodec(service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}, service.WithTokenLogger(logger.Component("tokens")))
	if err != nil {
		return err
	}

	authService := service.NewAuthService(
		cached,
		tokens,
		service.NewBcryptHasher(cfg.BcryptCost),
		dispatcher,
		logger.Component("auth"),
	)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Tokens:      tokens,
		Checks: map[string]handler.DependencyCheck{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, db) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("auth service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
