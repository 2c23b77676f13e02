package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/meteolab/weather-forecast-service/internal/api/http"
	"github.com/meteolab/weather-forecast-service/internal/config"
	"github.com/meteolab/weather-forecast-service/internal/scheduler"
	"github.com/meteolab/weather-forecast-service/internal/store"
	"github.com/meteolab/weather-forecast-service/internal/weather"
	"github.com/meteolab/weather-forecast-service/internal/weather/providers"
)

func main() {
	// Load configuration (reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	// Upstream client, rate-limited to stay within the provider quota.
	var client weather.Client = providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)
	if cfg.UpstreamRPS > 0 {
		client = providers.NewRateLimitedClient(client, cfg.UpstreamRPS, cfg.UpstreamBurst)
	}

	// Document store. A missing or unreachable store disables persistence;
	// the history endpoint degrades to an explicit empty response.
	var st weather.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		m, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		cancel()
		if err != nil {
			log.Printf("mongodb unavailable, running without persistence: %v", err)
		} else {
			log.Println("connected to mongodb")
			st = m
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := m.Disconnect(ctx); err != nil {
					log.Printf("error disconnecting mongodb: %v", err)
				}
			}()
		}
	case config.StoreDriverMemory:
		log.Println("using in-memory store")
		st = store.NewMemory(1000)
	default:
		log.Println("persistence disabled")
	}

	// Core service orchestrating the upstream client, normalizer and store.
	service := weather.NewService(client, st, weather.Options{
		PopularCities:       cfg.PopularCities,
		CityTimeout:         cfg.CityTimeout,
		HistoryDefaultLimit: cfg.HistoryDefaultLimit,
		HistoryMaxLimit:     cfg.HistoryMaxLimit,
	})
	defer service.Close()

	// Optional periodic popular-cities refresh.
	sched := scheduler.New(cfg.PopularCities, cfg.RefreshInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-forecast-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowCredentials: true,
	}))

	// Service metadata for the frontend collaborator.
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Weather Forecasting API",
			"status":  "running",
			"version": "1.0.0",
			"endpoints": []string{
				"/api/weather/current",
				"/api/weather/forecast",
				"/api/weather/history",
				"/api/weather/cities",
				"/api/weather/alerts",
			},
		})
	})

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-forecast-service",
		})
	})

	// Prometheus exposition.
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
