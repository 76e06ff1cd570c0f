// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/storeadmin/internal/api"
	"github.com/andresuchdata/storeadmin/internal/apiclient"
	"github.com/andresuchdata/storeadmin/internal/cache"
	"github.com/andresuchdata/storeadmin/internal/config"
	"github.com/andresuchdata/storeadmin/internal/controller"
	"github.com/andresuchdata/storeadmin/internal/repository/remote"
	"github.com/andresuchdata/storeadmin/internal/service"
	"github.com/andresuchdata/storeadmin/internal/session"
	"github.com/andresuchdata/storeadmin/internal/weather"
	"github.com/andresuchdata/storeadmin/internal/web"
	"github.com/andresuchdata/storeadmin/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	encoding, err := apiclient.ParseEncoding(cfg.API.PostEncoding)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid API_POST_ENCODING")
	}

	client := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout()),
		apiclient.WithDefaultEncoding(encoding),
		apiclient.WithMaxConcurrency(cfg.API.MaxConcurrency),
	)
	repo := remote.NewRepository(client)

	// Redis is optional; without it every cache is a no-op
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Redis unavailable, caching disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Initialize services
	catalogService := service.NewCatalogService(repo, cache.NewCatalogCache(redisClient, cfg.Cache.CatalogTTLSeconds))
	orderService := service.NewOrderService(repo, catalogService)
	calculationService := service.NewCalculationService(repo)
	weatherClient := weather.NewClient(cfg.Weather, cache.NewWeatherCache(redisClient, cfg.Weather.TTLSeconds))

	templates, err := web.Templates()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to parse templates")
	}

	sessions := session.NewStore(session.Dependencies{
		Orders:    orderService,
		Catalog:   catalogService,
		Simulator: calculationService,
		Dashboard: controller.DashboardOptions{
			InitialView: controller.ParseViewMode(cfg.Dashboard.InitialView),
			Seed:        cfg.Simulation.Seed,
		},
		RequireQuantity: cfg.Dashboard.RequireProductQuantity,
	}, cfg.Dashboard.SessionIdle())

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx, time.Minute)

	router := api.NewRouter(&api.Services{
		Sessions:     sessions,
		Orders:       orderService,
		Catalog:      catalogService,
		Calculations: calculationService,
		Weather:      weatherClient,
		Templates:    templates,
		Seed:         cfg.Simulation.Seed,
		DefaultDays:  cfg.Simulation.DefaultDays,
	}, cfg.Server.AllowedOrigins)

	// Initialize HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("api", cfg.API.BaseURL).
			Str("encoding", encoding.String()).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	stopSweep()

	logger.Log.Info().Msg("Server exiting")
}
