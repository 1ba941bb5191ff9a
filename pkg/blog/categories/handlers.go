package categories

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/auth"
	"github.com/mikepea/blog/pkg/blog/models"
	"github.com/mikepea/blog/pkg/blog/store"
)

// Store is the subset of the store used by the category API
type Store interface {
	ListCategories(ctx context.Context) ([]store.CategorySummary, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

// Handler handles category requests
type Handler struct {
	store Store
}

// NewHandler creates a new categories handler
func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

// CreateCategoryRequest represents the request to create a category
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	PostCount int    `json:"post_count"`
}

// List returns all categories with their post counts
// @Summary List categories
// @Description Get all categories by name, with post counts
// @Tags categories
// @Produce json
// @Success 200 {array} CategoryResponse
// @Router /categories [get]
func (h *Handler) List(c *gin.Context) {
	results, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	categories := make([]CategoryResponse, len(results))
	for i, r := range results {
		categories[i] = CategoryResponse{
			ID:        r.ID,
			Name:      r.Name,
			URL:       r.URL(),
			PostCount: r.PostCount,
		}
	}

	c.JSON(http.StatusOK, categories)
}

// Create creates a category
// @Summary Create a category
// @Description Create a new category (admin only)
// @Tags categories
// @Accept json
// @Produce json
// @Param request body CreateCategoryRequest true "Category details"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Admin access required"
// @Security BearerAuth
// @Router /categories [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := models.Category{Name: req.Name}
	if err := h.store.CreateCategory(c.Request.Context(), &category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, CategoryResponse{
		ID:   category.ID,
		Name: category.Name,
		URL:  category.URL(),
	})
}

// RegisterRoutes registers category routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/categories", h.List)
	rg.POST("/categories", auth.AuthMiddleware(), auth.RequireAdmin(), h.Create)
}
