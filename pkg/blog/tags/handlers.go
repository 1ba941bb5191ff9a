package tags

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/auth"
	"github.com/mikepea/blog/pkg/blog/models"
	"github.com/mikepea/blog/pkg/blog/store"
)

// Store is the subset of the store used by the tag API
type Store interface {
	ListTags(ctx context.Context) ([]store.TagSummary, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	PostTags(ctx context.Context, postID uint) ([]models.Tag, error)
	SetPostTags(ctx context.Context, postID uint, names []string) ([]models.Tag, error)
	AddPostTag(ctx context.Context, postID uint, name string) (*models.Tag, error)
	RemovePostTag(ctx context.Context, postID uint, name string) error
}

// Handler handles tag-related requests
type Handler struct {
	store Store
}

// NewHandler creates a new tags handler
func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	PostCount int    `json:"post_count,omitempty"`
}

// SetTagsRequest represents the request to set tags on a post
type SetTagsRequest struct {
	Tags []string `json:"tags" binding:"required"`
}

func tagsToResponse(tags []models.Tag) []TagResponse {
	responses := make([]TagResponse, len(tags))
	for i, t := range tags {
		responses[i] = TagResponse{ID: t.ID, Name: t.Name, URL: t.URL()}
	}
	return responses
}

// contextKeyPost holds the post loaded by authorOf for the handler that follows
const contextKeyPost = "post"

// authorOf loads the post in the path for the author check
func (h *Handler) authorOf(c *gin.Context) (uint, bool) {
	post, ok := h.post(c)
	if !ok {
		return 0, false
	}
	c.Set(contextKeyPost, post)
	return post.AuthorID, true
}

func (h *Handler) post(c *gin.Context) (*models.Post, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return nil, false
	}

	post, err := h.store.GetPost(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		}
		return nil, false
	}
	return post, true
}

// List returns all tags with the number of posts using each
// @Summary List tags
// @Description Get all tags with post counts, most used first
// @Tags tags
// @Produce json
// @Success 200 {array} TagResponse
// @Router /tags [get]
func (h *Handler) List(c *gin.Context) {
	results, err := h.store.ListTags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	tags := make([]TagResponse, len(results))
	for i, r := range results {
		tags[i] = TagResponse{
			ID:        r.ID,
			Name:      r.Name,
			URL:       r.URL(),
			PostCount: r.PostCount,
		}
	}

	c.JSON(http.StatusOK, tags)
}

// GetPostTags returns tags for a specific post
// @Summary Get post tags
// @Description Get the tags of a post, by name
// @Tags tags
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} TagResponse
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id}/tags [get]
func (h *Handler) GetPostTags(c *gin.Context) {
	post, ok := h.post(c)
	if !ok {
		return
	}

	tags, err := h.store.PostTags(c.Request.Context(), post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	c.JSON(http.StatusOK, tagsToResponse(tags))
}

// SetPostTags sets the tags for a post (replaces existing tags)
// @Summary Set post tags
// @Description Replace the tags of a post, creating tags that do not exist
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body SetTagsRequest true "Tag names"
// @Success 200 {array} TagResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Post not found"
// @Security BearerAuth
// @Router /posts/{id}/tags [put]
func (h *Handler) SetPostTags(c *gin.Context) {
	post := c.MustGet(contextKeyPost).(*models.Post)

	var req SetTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tags, err := h.store.SetPostTags(c.Request.Context(), post.ID, req.Tags)
	if err != nil {
		if store.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tags"})
		return
	}

	c.JSON(http.StatusOK, tagsToResponse(tags))
}

// AddPostTag adds a single tag to a post
// @Summary Add a post tag
// @Description Attach one tag to a post, creating it if needed
// @Tags tags
// @Produce json
// @Param id path int true "Post ID"
// @Param tag path string true "Tag name"
// @Success 200 {object} TagResponse
// @Failure 400 {object} map[string]string "Invalid tag name"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Post not found"
// @Security BearerAuth
// @Router /posts/{id}/tags/{tag} [post]
func (h *Handler) AddPostTag(c *gin.Context) {
	post := c.MustGet(contextKeyPost).(*models.Post)

	tag, err := h.store.AddPostTag(c.Request.Context(), post.ID, c.Param("tag"))
	if err != nil {
		if errors.Is(err, store.ErrInvalidTag) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tag name is required"})
			return
		}
		if store.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add tag"})
		return
	}

	c.JSON(http.StatusOK, TagResponse{ID: tag.ID, Name: tag.Name, URL: tag.URL()})
}

// RemovePostTag removes a tag from a post
// @Summary Remove a post tag
// @Description Detach one tag from a post
// @Tags tags
// @Produce json
// @Param id path int true "Post ID"
// @Param tag path string true "Tag name"
// @Success 200 {object} map[string]string "Tag removed"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Post or tag not found"
// @Security BearerAuth
// @Router /posts/{id}/tags/{tag} [delete]
func (h *Handler) RemovePostTag(c *gin.Context) {
	post := c.MustGet(contextKeyPost).(*models.Post)

	if err := h.store.RemovePostTag(c.Request.Context(), post.ID, c.Param("tag")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove tag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag removed"})
}

// RegisterRoutes registers tag routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.List)
	rg.GET("/posts/:id/tags", h.GetPostTags)

	// Post tag changes
	authed := rg.Group("", auth.AuthMiddleware(), auth.RequireAuthorOrAdmin(h.authorOf, "change tags"))
	authed.PUT("/posts/:id/tags", h.SetPostTags)
	authed.POST("/posts/:id/tags/:tag", h.AddPostTag)
	authed.DELETE("/posts/:id/tags/:tag", h.RemovePostTag)
}
