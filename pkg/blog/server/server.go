// Package server wires the page and API handlers into one gin engine.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/auth"
	"github.com/mikepea/blog/pkg/blog/categories"
	"github.com/mikepea/blog/pkg/blog/config"
	"github.com/mikepea/blog/pkg/blog/importexport"
	"github.com/mikepea/blog/pkg/blog/posts"
	"github.com/mikepea/blog/pkg/blog/store"
	"github.com/mikepea/blog/pkg/blog/tags"
	"github.com/mikepea/blog/pkg/blog/views"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mikepea/blog/api/swagger"
)

// New builds the router serving the HTML pages, the JSON API and the
// swagger UI from s.
func New(cfg config.Config, s *store.Store) (*gin.Engine, error) {
	renderer, err := views.NewRenderer(cfg.Location(), cfg.LanguageTag())
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	r := gin.New()
	r.Use(RequestID(), Logger(), gin.Recovery())
	r.HTMLRender = renderer

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "blog",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(s)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Posts, tags and categories: reads are public, writes need a token
		posts.NewHandler(s).RegisterRoutes(api)
		tags.NewHandler(s).RegisterRoutes(api)
		categories.NewHandler(s).RegisterRoutes(api)

		// Import/Export routes (JWT, admin role required)
		importExportHandler := importexport.NewHandler(s)
		importExportHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware(), auth.RequireAdmin()))
	}

	// HTML pages
	pages := views.NewHandler(s, views.Options{
		SiteTitle:      cfg.SiteTitle,
		HighlightStyle: cfg.HighlightStyle,
	})
	pages.RegisterRoutes(r)
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		pages.NotFound(c)
	})

	return r, nil
}
