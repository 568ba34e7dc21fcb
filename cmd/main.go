package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fernsky/delivery-admin-sub005/internal/clients/gcp"
	redisclient "github.com/fernsky/delivery-admin-sub005/internal/clients/redis"
	"github.com/fernsky/delivery-admin-sub005/internal/db"
	"github.com/fernsky/delivery-admin-sub005/internal/handlers"
	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/middleware"
	"github.com/fernsky/delivery-admin-sub005/internal/observability"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/server"
	"github.com/fernsky/delivery-admin-sub005/internal/services"
	"github.com/fernsky/delivery-admin-sub005/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "digital-profile",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	wardRepo := repos.NewWardRepo(thePG, log)
	wardStatisticRepo := repos.NewWardStatisticRepo(thePG, log)
	locationRepo := repos.NewLocationRepo(thePG, log)
	mediaRepo := repos.NewMediaRepo(thePG, log)

	// Clients
	queryCache, err := redisclient.NewQueryCache(log)
	if err != nil {
		log.Warn("Could not init QueryCache, reads will skip the cache", "error", err)
		queryCache = nil
	}
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	statisticService := services.NewStatisticService(thePG, log, wardStatisticRepo, queryCache)
	wardService := services.NewWardService(thePG, log, wardRepo)
	locationService := services.NewLocationService(thePG, log, locationRepo, queryCache)
	mediaService := services.NewMediaService(thePG, log, mediaRepo, bucketService)
	sitemapService, err := services.NewSitemapService(log, wardRepo)
	if err != nil {
		log.Error("Could not init SitemapService", "error", err)
		os.Exit(1)
	}
	var placardService services.PlacardService
	if bucketService != nil {
		placardService, err = services.NewPlacardService(log, mediaRepo, bucketService)
		if err != nil {
			log.Warn("Could not init PlacardService", "error", err)
		}
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	statisticHandler := handlers.NewStatisticHandler(statisticService)
	wardHandler := handlers.NewWardHandler(wardService)
	locationHandler := handlers.NewLocationHandler(locationService)
	mediaHandler := handlers.NewMediaHandler(mediaService, placardService)
	sitemapHandler := handlers.NewSitemapHandler(sitemapService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:   authMiddleware,
		StatisticHandler: statisticHandler,
		WardHandler:      wardHandler,
		LocationHandler:  locationHandler,
		MediaHandler:     mediaHandler,
		SitemapHandler:   sitemapHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
