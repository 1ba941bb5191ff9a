package importexport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/auth"
	"github.com/mikepea/blog/pkg/blog/models"
	"github.com/mikepea/blog/pkg/blog/store"
)

// Store is the subset of the store used for import and export
type Store interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	ImportPost(ctx context.Context, post *models.Post, categoryName string, tagNames []string) error
}

// Handler handles import/export requests
type Handler struct {
	store Store
}

// NewHandler creates a new import/export handler
func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

// ExportedPost is the portable form of a post
type ExportedPost struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Excerpt    string   `json:"excerpt"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Author     string   `json:"author"`
	CreateTime string   `json:"create_time"`
	Views      uint     `json:"views"`
}

// ImportRequest represents an import request
type ImportRequest struct {
	Posts []ExportedPost `json:"posts" binding:"required"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

func exportPost(post models.Post) ExportedPost {
	tagNames := make([]string, len(post.Tags))
	for i, tag := range post.Tags {
		tagNames[i] = tag.Name
	}
	return ExportedPost{
		Title:      post.Title,
		Body:       post.Body,
		Excerpt:    post.Excerpt,
		Category:   post.Category.Name,
		Tags:       tagNames,
		Author:     post.Author.Email,
		CreateTime: post.CreateTime.UTC().Format(time.RFC3339),
		Views:      post.Views,
	}
}

// Import creates posts from their exported form, authored by the caller.
// Views are not imported; the counter starts again at zero.
// @Summary Import posts
// @Description Import posts exported by this API; missing categories and tags are created
// @Tags import-export
// @Accept json
// @Produce json
// @Param request body ImportRequest true "Posts to import"
// @Success 200 {object} ImportResult
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /import [post]
func (h *Handler) Import(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	result := ImportResult{
		Errors: []string{},
	}

	for i, p := range req.Posts {
		skip := func(msg string) {
			result.Errors = append(result.Errors, fmt.Sprintf("post %d: %s", i, msg))
			result.Skipped++
		}

		// Parse time
		var created time.Time
		if p.CreateTime != "" {
			parsed, err := time.Parse(time.RFC3339, p.CreateTime)
			if err != nil {
				skip("invalid time format")
				continue
			}
			created = parsed
		}

		if p.Category == "" {
			skip("category is required")
			continue
		}

		post := models.Post{
			Title:      p.Title,
			Body:       p.Body,
			Excerpt:    p.Excerpt,
			CreateTime: created,
			AuthorID:   userID,
		}
		if err := h.store.ImportPost(ctx, &post, p.Category, p.Tags); err != nil {
			skip(err.Error())
			continue
		}

		result.Imported++
	}

	c.JSON(http.StatusOK, result)
}

// Export returns every post in portable form, newest first
// @Summary Export posts
// @Description Export all posts with their categories and tags
// @Tags import-export
// @Produce json
// @Param download query bool false "Send as a file attachment"
// @Success 200 {array} ExportedPost
// @Security BearerAuth
// @Router /export [get]
func (h *Handler) Export(c *gin.Context) {
	posts, err := h.store.ListPosts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	exported := make([]ExportedPost, len(posts))
	for i, post := range posts {
		exported[i] = exportPost(post)
	}

	// Set content disposition for download
	if c.Query("download") == "true" {
		c.Header("Content-Disposition", "attachment; filename=blog-export.json")
	}

	c.JSON(http.StatusOK, exported)
}

// ExportSingle exports one post
// @Summary Export a post
// @Description Export a single post with its category and tags
// @Tags import-export
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} ExportedPost
// @Failure 404 {object} map[string]string "Post not found"
// @Security BearerAuth
// @Router /export/{id} [get]
func (h *Handler) ExportSingle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	c.JSON(http.StatusOK, exportPost(*post))
}

// RegisterRoutes registers import/export routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import", h.Import)
	rg.GET("/export", h.Export)
	rg.GET("/export/:id", h.ExportSingle)
}
