package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"insights/analytics"
	"insights/billing"
	"insights/config"
	"insights/database"
	"insights/handlers"
	"insights/logger"
	"insights/middleware"
	"insights/narrative"
	"insights/routes"
	"insights/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.Env)

	warnings, err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, w := range warnings {
		log.Warn("optional environment variable not set", "var", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	files, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	var gen narrative.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := narrative.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("gemini unavailable, narratives use the fallback template", "error", err)
		} else {
			defer gemini.Close()
			gen = gemini
		}
	}

	var limiterStorage fiber.Storage
	checks := map[string]handlers.Pinger{}
	if cfg.RedisURL != "" {
		rs, err := middleware.NewRedisStorage(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, rate limits are per instance", "error", err)
		} else {
			defer rs.Close()
			limiterStorage = rs
			checks["ratelimit"] = rs
		}
	}

	metrics := middleware.NewMetrics()
	h := handlers.New(handlers.Deps{
		Config:   cfg,
		Store:    store,
		Files:    files,
		Engine:   analytics.NewEngine(analytics.WithSampleLimit(cfg.SampleLimit)),
		Narrator: narrative.NewNarrator(gen, cfg.NarrativeTimeout, log),
		Billing:  billing.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
		Metrics:  metrics,
		Logger:   log,
		Checks:   checks,
	})

	app := fiber.New(fiber.Config{
		AppName:   "insights " + cfg.Version,
		BodyLimit: int(cfg.MaxUploadBytes) + 1<<20,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	routes.SetupRoutes(app, h, routes.Options{
		JWTSecret: []byte(cfg.JWTSecret),
		Limiter:   middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, limiterStorage),
		Metrics:   metrics,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
