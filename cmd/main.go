package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/amanshu0143/backend/internal/auth"
	c "github.com/amanshu0143/backend/internal/cache"
	"github.com/amanshu0143/backend/internal/circuitbreaker"
	"github.com/amanshu0143/backend/internal/config"
	"github.com/amanshu0143/backend/internal/consumer"
	h "github.com/amanshu0143/backend/internal/http"
	"github.com/amanshu0143/backend/internal/logger"
	"github.com/amanshu0143/backend/internal/pricing"
	"github.com/amanshu0143/backend/internal/publisher"
	"github.com/amanshu0143/backend/internal/ratelimit"
	"github.com/amanshu0143/backend/internal/repository"
	"github.com/amanshu0143/backend/internal/sanitize"
	s "github.com/amanshu0143/backend/internal/service"
	"github.com/amanshu0143/backend/internal/signer"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, logger.Config{Level: cfg.LogLevel, Service: "estrella-api"})
	slog.SetDefault(log)

	// accept upstream trace context so log lines carry its trace id
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	policy, err := pricing.PolicyByName(cfg.PricingPolicy)
	if err != nil {
		return err
	}
	orderSigner, err := signer.New(cfg.SecretKey)
	if err != nil {
		return err
	}
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}

	// Migrations
	if err := repository.RunMigrations(filepath.Join(cfg.MigrationsPath, "estrella"), cfg.EstrellaURI, cfg.EstrellaDB); err != nil {
		return err
	}
	if err := repository.RunMigrations(filepath.Join(cfg.MigrationsPath, "orderbook"), cfg.OrderbookURI, cfg.OrderbookDB); err != nil {
		return err
	}

	// Set up MongoDB connections
	pool := repository.PoolConfig{MaxPoolSize: cfg.MongoMaxPoolSize, MinPoolSize: cfg.MongoMinPoolSize}
	estrellaDB, err := repository.ConnectMongoDB(ctx, cfg.EstrellaURI, cfg.EstrellaDB, pool)
	if err != nil {
		return err
	}
	defer disconnect(estrellaDB.Client().Disconnect, log)
	orderbookDB, err := repository.ConnectMongoDB(ctx, cfg.OrderbookURI, cfg.OrderbookDB, pool)
	if err != nil {
		return err
	}
	defer disconnect(orderbookDB.Client().Disconnect, log)
	log.Info("connected to MongoDB", "catalog_db", cfg.EstrellaDB, "order_db", cfg.OrderbookDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	log.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	productCache := c.NewRedisCache(redisClient)
	orders := repository.NewOrderRepository(orderbookDB)
	sanitizer := sanitize.New()

	products := circuitbreaker.NewProductRepository(repository.NewProductRepository(estrellaDB), circuitbreaker.DefaultConfig(), log)
	catalog := s.NewCatalogService(products, productCache, log)
	checkout := s.NewCheckoutService(pricing.NewEngine(catalog, policy), orderSigner, orders, sanitizer, log)
	subscriptions := s.NewSubscriptionService(repository.NewSubscriberRepository(estrellaDB), log)

	apiLimiter := ratelimit.New(cfg.APIRateLimit, cfg.APIRateWindow)
	subscribeLimiter := ratelimit.New(cfg.SubscribeRateLimit, cfg.SubscribeRateWindow)

	var wg sync.WaitGroup
	background := func(f func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(ctx)
		}()
	}
	background(func(ctx context.Context) { apiLimiter.Run(ctx, time.Minute) })
	background(func(ctx context.Context) { subscribeLimiter.Run(ctx, time.Minute) })

	if cfg.KafkaEnabled() {
		poller := publisher.NewOrderPoller(orders, log, cfg.OrdersTopic, cfg.KafkaBrokers...)
		defer poller.Close()
		invalidator := consumer.NewCatalogInvalidator(productCache, log, cfg.CatalogTopic, cfg.CatalogGroupID, cfg.KafkaBrokers...)
		defer invalidator.Close()

		background(poller.Run)
		background(invalidator.Run)
		log.Info("kafka workers started", "brokers", cfg.KafkaBrokers)
	}

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		APILimiter:         apiLimiter,
		SubscribeLimiter:   subscribeLimiter,
		Tokens:             issuer,
	}, h.Handlers{
		Token:      h.NewTokenHandler(issuer, log),
		Subscribe:  h.NewSubscribeHandler(subscriptions, cfg.RequestTimeout, log),
		Collection: h.NewCollectionHandler(catalog, cfg.RequestTimeout, log),
		Checkout:   h.NewCheckoutHandler(checkout, sanitizer, cfg.RequestTimeout, log),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("API starting", "port", cfg.HTTPPort, "pricing_policy", policy.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
	}

	log.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	wg.Wait()
	log.Info("server exited")
	return nil
}

func disconnect(f func(context.Context) error, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f(ctx); err != nil {
		log.Error("mongo disconnect failed", "error", err)
	}
}
