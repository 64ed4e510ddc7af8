// Package main provides the entry point for the RefStack backend.
//
//	@title			RefStack API
//	@version		1.0.0
//	@description	Referral links, click analytics, subscriptions and public referral pages.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"RefStack-Backend/internal/auth"
	"RefStack-Backend/internal/config"
	"RefStack-Backend/internal/database"
	httpHandler "RefStack-Backend/internal/handler/http"
	"RefStack-Backend/internal/notify"
	"RefStack-Backend/internal/ratelimit"
	"RefStack-Backend/internal/repository/postgres"
	"RefStack-Backend/internal/service"
	"RefStack-Backend/pkg/logger"
	"RefStack-Backend/pkg/useragent"
	"context"
	"errors"
	lg "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "RefStack-Backend/docs" // swagger docs
)

const (
	version     = "1.0.0"
	regexesPath = "assets/regexes.yaml"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting RefStack backend", zap.String("env", cfg.Env), zap.String("version", version))

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("jwt secret is not configured")
	}

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations (auto_migrate: true)")
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	}

	if cfg.Database.SeedData {
		log.Info("seeding database with initial data (seed_data: true)")
		if err := database.SeedData(db, log); err != nil {
			log.Fatal("failed to seed database", zap.Error(err))
		}
	}

	uaParser, err := useragent.NewParser(regexesPath, log)
	if err != nil {
		log.Info("user agent regexes not found, using embedded definitions", zap.String("path", regexesPath))
		uaParser = useragent.NewDefault(log)
	}

	for name, secret := range map[string]string{
		"stripe":   cfg.Stripe.WebhookSecret,
		"paypal":   cfg.PayPal.WebhookSecret,
		"coinbase": cfg.Coinbase.WebhookSecret,
	} {
		if secret == "" {
			log.Warn("webhook secret not configured, deliveries will be rejected", zap.String("provider", name))
		}
	}

	storage := postgres.New(db, log)
	notifier := notify.NewNotifier(storage, notify.NewMailer(cfg.SMTP), log)
	subscriptions := service.NewSubscriptionService(storage, notifier, log)
	allocator := service.NewCodeAllocator(storage, cfg.Links.ShortCodeLength)
	paypalAPI := service.NewPayPalClient(cfg.PayPal, log)

	services := httpHandler.Services{
		Links:         service.NewLinkService(storage, allocator, cfg.Links.DefaultMaxLinks, log),
		Clicks:        service.NewClickService(storage, uaParser, log),
		Subscriptions: subscriptions,
		Stripe:        service.NewStripeWebhookService(cfg.Stripe.WebhookSecret, storage, subscriptions, notifier, log),
		PayPal:        service.NewPayPalWebhookService(cfg.PayPal, paypalAPI, storage, subscriptions, notifier, log),
		Coinbase:      service.NewCoinbaseWebhookService(cfg.Coinbase.WebhookSecret, storage, subscriptions, notifier, log),
		Profiles:      service.NewProfileService(storage, cfg.Links.BaseURL, log),
		Domains:       service.NewDomainService(storage, net.DefaultResolver, log),
	}

	var limiter *ratelimit.Limiter
	redisClient, err := ratelimit.NewRedisClient(context.Background(), cfg.Redis, log)
	if err != nil {
		log.Fatal("failed to configure redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiter = ratelimit.New(redisClient, cfg.Redis.RateLimit, cfg.Redis.RateWindow, log)
	}

	jwtService := auth.NewJWTService(auth.NewJWTConfig(cfg.Auth))
	passwordService := auth.NewPasswordService()

	apiServer := httpHandler.NewServer(
		storage,
		services,
		jwtService,
		passwordService,
		limiter,
		cfg.HTTPServer.AllowedOrigins,
		version,
		log,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      apiServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down RefStack backend...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
