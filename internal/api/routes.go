package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/codyseavey/sneaker-tracker/internal/api/handlers"
	"github.com/codyseavey/sneaker-tracker/internal/config"
	"github.com/codyseavey/sneaker-tracker/internal/services"
	"github.com/codyseavey/sneaker-tracker/internal/store"
)

// Deps are the services the router hands to its handlers.
type Deps struct {
	Store       *store.GormStore
	Collections *services.CollectionService
	Portfolio   *services.PortfolioService
	Valuation   *services.ValuationWorker
}

func SetupRouter(cfg *config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics(), requestLogger(logger))

	serveFrontend := cfg.FrontendDistPath != "" && dirExists(cfg.FrontendDistPath)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.OwnerHeader}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	// Initialize handlers
	itemHandler := handlers.NewItemHandler(deps.Store, deps.Portfolio)
	collectionHandler := handlers.NewCollectionHandler(deps.Collections)
	portfolioHandler := handlers.NewPortfolioHandler(deps.Portfolio, deps.Valuation)
	tagHandler := handlers.NewTagHandler(deps.Store)
	catalogHandler := handlers.NewCatalogHandler(deps.Store)

	api := router.Group("/api")
	api.Use(handlers.Owner(cfg.DefaultOwnerID))
	{
		items := api.Group("/items")
		{
			items.GET("", itemHandler.ListItems)
			items.POST("", itemHandler.AddItem)
			items.GET("/:id", itemHandler.GetItem)
			items.PUT("/:id", itemHandler.UpdateItem)
			items.DELETE("/:id", itemHandler.DeleteItem)
			items.POST("/:id/wear", itemHandler.RecordWear)
			items.POST("/:id/tags/:tagId", itemHandler.AttachTag)
			items.DELETE("/:id/tags/:tagId", itemHandler.DetachTag)
		}

		collections := api.Group("/collections")
		{
			collections.GET("", collectionHandler.ListCollections)
			collections.POST("", collectionHandler.CreateCollection)
			collections.GET("/:id", collectionHandler.GetCollection)
			collections.DELETE("/:id", collectionHandler.DeleteCollection)
			collections.PUT("/:id/rule", collectionHandler.UpdateRule)
			collections.GET("/:id/items", collectionHandler.GetCollectionItems)
			collections.POST("/:id/items", collectionHandler.AddCollectionItem)
			collections.DELETE("/:id/items/:itemId", collectionHandler.RemoveCollectionItem)
		}

		portfolio := api.Group("/portfolio")
		{
			portfolio.GET("/analytics", portfolioHandler.GetAnalytics)
			portfolio.GET("/valuation", portfolioHandler.GetValuationStatus)
		}

		tags := api.Group("/tags")
		{
			tags.GET("", tagHandler.ListTags)
			tags.POST("", tagHandler.CreateTag)
		}

		catalog := api.Group("/catalog")
		{
			catalog.POST("", catalogHandler.UpsertEntry)
			catalog.GET("/:id", catalogHandler.GetEntry)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if deps.Valuation != nil {
			body["valuation"] = deps.Valuation.Status()
		}
		c.JSON(http.StatusOK, body)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Serve frontend static files
	if serveFrontend {
		frontendPath := cfg.FrontendDistPath
		indexPath := filepath.Join(frontendPath, "index.html")

		router.Static("/assets", filepath.Join(frontendPath, "assets"))
		router.StaticFile("/vite.svg", filepath.Join(frontendPath, "vite.svg"))

		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback - serve index.html for all non-API routes
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.File(indexPath)
		})
	}

	return router
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
