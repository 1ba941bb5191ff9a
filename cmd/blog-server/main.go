package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/auth"
	"github.com/mikepea/blog/pkg/blog/config"
	"github.com/mikepea/blog/pkg/blog/database"
	"github.com/mikepea/blog/pkg/blog/models"
	"github.com/mikepea/blog/pkg/blog/server"
	"github.com/mikepea/blog/pkg/blog/store"
)

// @title Blog API
// @version 1.0
// @description Authoring API for a Markdown blog: posts, categories, tags and comments.

// @contact.name Blog Support
// @contact.url https://github.com/mikepea/blog

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token. Format: "Bearer {token}"

// defaultCategory is created on first start so the first post has somewhere to go
const defaultCategory = "Uncategorized"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to database
	if err := database.Connect(database.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		LogLevel: cfg.DBLogLevel,
	}); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	s := store.New(database.GetDB(), cfg.Location())
	ctx := context.Background()

	// Create default admin user if no admin exists
	if err := ensureAdminExists(ctx, s, cfg); err != nil {
		log.Fatalf("Failed to ensure admin user exists: %v", err)
	}
	if err := ensureCategoryExists(ctx, s); err != nil {
		log.Fatalf("Failed to ensure a category exists: %v", err)
	}

	auth.Configure(cfg.JWTSecret, cfg.TokenTTL)

	gin.SetMode(gin.ReleaseMode)
	r, err := server.New(cfg, s)
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	log.Printf("Starting blog server on %s (%s)", cfg.Addr(), cfg.BaseURL)
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureAdminExists creates a default admin author if none exists
func ensureAdminExists(ctx context.Context, s *store.Store, cfg config.Config) error {
	count, err := s.CountAdmins(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	adminUser := models.User{
		Email:        cfg.AdminEmail,
		Name:         cfg.AdminName,
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleAdmin,
	}
	if err := s.CreateUser(ctx, &adminUser); err != nil {
		return err
	}

	log.Printf("Created default admin user: %s", cfg.AdminEmail)
	return nil
}

// ensureCategoryExists creates the fallback category on an empty database
func ensureCategoryExists(ctx context.Context, s *store.Store) error {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) > 0 {
		return nil
	}

	if _, err := s.GetOrCreateCategory(ctx, defaultCategory); err != nil {
		return err
	}
	log.Printf("Created default category: %s", defaultCategory)
	return nil
}
