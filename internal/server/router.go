package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fernsky/delivery-admin-sub005/internal/handlers"
	"github.com/fernsky/delivery-admin-sub005/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware   *middleware.AuthMiddleware
	StatisticHandler *handlers.StatisticHandler
	WardHandler      *handlers.WardHandler
	LocationHandler  *handlers.LocationHandler
	MediaHandler     *handlers.MediaHandler
	SitemapHandler   *handlers.SitemapHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("digital-profile"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	router.GET("/sitemap/categories", cfg.SitemapHandler.ListCategories)
	router.GET("/sitemap/:locale/:category", cfg.SitemapHandler.Entries)

	api := router.Group("/api")
	{
		api.GET("/datasets", cfg.StatisticHandler.ListDatasets)
		api.GET("/datasets/:dataset/statistics", cfg.StatisticHandler.ListStatistics)
		api.GET("/datasets/:dataset/statistics/ward/:wardNumber", cfg.StatisticHandler.ListStatisticsByWard)
		api.GET("/datasets/:dataset/summary", cfg.StatisticHandler.Summary)

		api.GET("/wards", cfg.WardHandler.ListWards)
		api.GET("/wards/:wardNumber", cfg.WardHandler.GetWard)

		api.GET("/locations", cfg.LocationHandler.ListLocations)
		api.GET("/locations/:slug", cfg.LocationHandler.GetLocation)

		api.GET("/media/:entityType/:entityId", cfg.MediaHandler.ListForEntity)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.POST("/datasets/:dataset/statistics", cfg.StatisticHandler.CreateStatistic)
		protected.PUT("/datasets/:dataset/statistics/:id", cfg.StatisticHandler.UpdateStatistic)
		protected.DELETE("/datasets/:dataset/statistics/:id", cfg.StatisticHandler.DeleteStatistic)

		protected.PUT("/wards", cfg.WardHandler.UpsertWard)

		protected.POST("/locations", cfg.LocationHandler.CreateLocation)
		protected.PUT("/locations/:id", cfg.LocationHandler.UpdateLocation)
		protected.DELETE("/locations/:id", cfg.LocationHandler.DeleteLocation)

		protected.POST("/media/upload", cfg.MediaHandler.Upload)
		protected.POST("/media/placard", cfg.MediaHandler.GeneratePlacard)
		protected.POST("/media/link", cfg.MediaHandler.Link)
		protected.PUT("/media/reorder", cfg.MediaHandler.Reorder)
		protected.PUT("/media/:id/primary", cfg.MediaHandler.SetPrimary)
		protected.DELETE("/media/:id", cfg.MediaHandler.Delete)
	}

	return router
}
