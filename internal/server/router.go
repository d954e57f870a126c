// Package server assembles the HTTP router of the reference data API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"refdata/internal/config"
	"refdata/internal/handlers"
	"refdata/internal/middleware"
	"refdata/internal/services"
)

// NewRouter wires every service and handler against db.
func NewRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	catalog := services.NewCatalog(db)
	uploads := handlers.NewUploads(cfg.UploadDir, cfg.MaxUploadBytes)

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	register := func(slug string, h interface{ Register(*gin.RouterGroup) }) {
		h.Register(v1.Group("/" + slug))
	}
	register(services.AssetClassEntity.Slug, handlers.NewConfigHandler(catalog.AssetClasses, catalog.Imports, uploads))
	register(services.CalendarEntity.Slug, handlers.NewConfigHandler(catalog.Calendars, catalog.Imports, uploads))
	register(services.ExchangeEntity.Slug, handlers.NewConfigHandler(catalog.Exchanges, catalog.Imports, uploads))
	register(services.InterestTypeEntity.Slug, handlers.NewConfigHandler(catalog.InterestTypes, catalog.Imports, uploads))
	register(services.QuoteEntity.Slug, handlers.NewConfigHandler(catalog.Quotes, catalog.Imports, uploads))
	register(services.PartyEntity.Slug, handlers.NewConfigHandler(catalog.Parties, catalog.Imports, uploads))
	register(services.ReferenceRateEntity.Slug, handlers.NewConfigHandler(catalog.ReferenceRates, catalog.Imports, uploads))
	register(services.BondSecurityEntity.Slug, handlers.NewBondHandler(catalog.Bonds, catalog.Imports, uploads))

	processHandler := handlers.NewProcessHandler(catalog.Processes)
	v1.GET("/process/get/:id", processHandler.Get)

	return router
}
