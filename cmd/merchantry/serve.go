package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/merchantry/merchantry/pkg/accounts"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/catalog"
	"github.com/merchantry/merchantry/pkg/config"
	"github.com/merchantry/merchantry/pkg/demo"
	"github.com/merchantry/merchantry/pkg/email"
	"github.com/merchantry/merchantry/pkg/health"
	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/observability/metrics"
	"github.com/merchantry/merchantry/pkg/orders"
	"github.com/merchantry/merchantry/pkg/repository"
	"github.com/merchantry/merchantry/pkg/server"
	"github.com/merchantry/merchantry/pkg/store/mongodb"
	"github.com/merchantry/merchantry/pkg/store/redis"
)

// runServer wires every dependency and blocks until shutdown.
func runServer(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoAdapter, err := mongodb.NewAdapter(mongodb.Config{
		URL:              cfg.Database.URL,
		Database:         cfg.Database.Name,
		ConnectTimeout:   cfg.Database.ConnectTimeout,
		OperationTimeout: cfg.Database.OperationTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer func() {
		if closeErr := mongoAdapter.Close(); closeErr != nil {
			log.Error("failed to close mongodb adapter", "error", closeErr)
		}
	}()

	redisAdapter, err := redis.NewAdapter(redis.Config{
		URL:              cfg.Cache.URL,
		MaxConns:         cfg.Cache.MaxConns,
		OperationTimeout: cfg.Cache.OperationTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := redisAdapter.Close(); closeErr != nil {
			log.Error("failed to close redis adapter", "error", closeErr)
		}
	}()

	store := repository.NewMongoStore(mongoAdapter)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("create token manager: %w", err)
	}
	denylist := auth.NewRedisDenylist(redisAdapter)

	mailer, err := email.NewSMTPProvider(email.SMTPConfig{
		Host:      cfg.Email.Host,
		Port:      cfg.Email.Port,
		Username:  cfg.Email.Username,
		Password:  cfg.Email.Password,
		From:      cfg.Email.From,
		EnableTLS: cfg.Email.EnableTLS,
	}, log)
	if err != nil {
		return fmt.Errorf("create mail provider: %w", err)
	}
	defer func() {
		if closeErr := mailer.Close(); closeErr != nil {
			log.Error("failed to close mail provider", "error", closeErr)
		}
	}()

	products, err := catalog.NewService(store, cfg.Uploads.ImageDir, log)
	if err != nil {
		return fmt.Errorf("create product service: %w", err)
	}
	orderSvc, err := orders.NewService(store, cfg.Uploads.ImageDir, log)
	if err != nil {
		return fmt.Errorf("create order service: %w", err)
	}
	demoSvc, err := demo.NewService(store, cfg.Uploads.ImageDir, log)
	if err != nil {
		return fmt.Errorf("create demo service: %w", err)
	}
	accountsSvc, err := accounts.NewService(accounts.Options{
		Store:       store,
		Tokens:      tokens,
		Denylist:    denylist,
		Mailer:      mailer,
		FrontendURL: cfg.Auth.FrontendURL,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("create account service: %w", err)
	}

	checks := health.NewRegistry()
	checks.Register("mongodb", mongoAdapter)
	checks.Register("redis", redisAdapter)

	srv := server.NewServer(server.Deps{
		Config:   cfg,
		Logger:   log,
		Registry: metrics.NewRegistry(),
		Tokens:   tokens,
		Denylist: denylist,
		Products: products,
		Orders:   orderSvc,
		Demos:    demoSvc,
		Accounts: accountsSvc,
		Health:   checks,
	})

	return srv.Start(runCtx)
}

// runHealthcheck pings the database and cache once and reports failures.
func runHealthcheck(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	mongoAdapter, err := mongodb.NewAdapter(mongodb.Config{
		URL:              cfg.Database.URL,
		Database:         cfg.Database.Name,
		ConnectTimeout:   cfg.Database.ConnectTimeout,
		OperationTimeout: cfg.Database.OperationTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer mongoAdapter.Close()

	redisAdapter, err := redis.NewAdapter(redis.Config{
		URL:              cfg.Cache.URL,
		MaxConns:         cfg.Cache.MaxConns,
		OperationTimeout: cfg.Cache.OperationTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisAdapter.Close()

	checks := health.NewRegistry()
	checks.Register("mongodb", mongoAdapter)
	checks.Register("redis", redisAdapter)

	report := checks.Check(ctx)
	for name, result := range report.Checks {
		log.Info("health check", "dependency", name, "result", result)
	}
	if !report.Healthy {
		return fmt.Errorf("one or more dependencies are unhealthy")
	}
	return nil
}
