package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/cart"
	"github.com/KeeperOfTheLights/best-project-backend/internal/catalog"
	"github.com/KeeperOfTheLights/best-project-backend/internal/chat"
	"github.com/KeeperOfTheLights/best-project-backend/internal/complaint"
	"github.com/KeeperOfTheLights/best-project-backend/internal/config"
	"github.com/KeeperOfTheLights/best-project-backend/internal/db"
	marketHttp "github.com/KeeperOfTheLights/best-project-backend/internal/handler/http"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/KeeperOfTheLights/best-project-backend/internal/link"
	"github.com/KeeperOfTheLights/best-project-backend/internal/metrics"
	"github.com/KeeperOfTheLights/best-project-backend/internal/order"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogger(cfg config.AppConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(os.Stdout)
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	log.Logger = logger.With().Timestamp().Str("service", cfg.Name).Logger()
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)
	log.Info().Str("env", cfg.App.Env).Msg("Starting marketplace-service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := dbPool.Migrate(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// Chat degrades but the marketplace keeps serving.
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis is unreachable at startup")
	}
	cancelPing()

	appMetrics := metrics.New(cfg.App.Name)

	identityRepository := identity.NewRepository(dbPool.Pool)
	identitySvc := identity.NewService(identityRepository)
	resolver := identity.NewResolver(identityRepository)

	linkSvc := link.NewService(link.NewRepository(dbPool.Pool), identitySvc, resolver)

	productRepository := catalog.NewRepository(dbPool.Pool)
	catalogSvc := catalog.NewService(productRepository, linkSvc, resolver)
	cartSvc := cart.NewService(cart.NewRepository(dbPool.Pool), productRepository, linkSvc)

	orderRepository := order.NewRepository(dbPool.Pool)
	orderSvc := order.NewService(orderRepository, resolver, linkSvc, order.WithRecorder(appMetrics))
	complaintSvc := complaint.NewService(complaint.NewRepository(dbPool.Pool), orderRepository, resolver)
	chatSvc := chat.NewService(chat.NewRedisStore(redisClient), linkSvc, resolver)

	rateLimiter := marketHttp.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	go rateLimiter.Run(ctx, time.Minute, 3*time.Minute)

	router := marketHttp.NewRouter(marketHttp.RouterConfig{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
	}, marketHttp.RouterDeps{
		Users: marketHttp.NewUserHandler(identitySvc),
		Handlers: []marketHttp.RouteRegistrar{
			marketHttp.NewLinkHandler(linkSvc),
			marketHttp.NewProductHandler(catalogSvc),
			marketHttp.NewCartHandler(cartSvc),
			marketHttp.NewOrderHandler(orderSvc),
			marketHttp.NewComplaintHandler(complaintSvc),
			marketHttp.NewChatHandler(chatSvc),
		},
		Verifier:    identity.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Directory:   identitySvc,
		Metrics:     appMetrics,
		RateLimiter: rateLimiter,
		Health: map[string]marketHttp.HealthCheck{
			"postgres": func(ctx context.Context) error { return dbPool.Pool.Ping(ctx) },
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("Could not listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	if err := redisClient.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close redis client")
	}
	dbPool.Close()

	log.Info().Msg("Marketplace-service stopped gracefully.")
}
