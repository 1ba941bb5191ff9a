package posts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/auth"
	"github.com/mikepea/blog/pkg/blog/models"
	"github.com/mikepea/blog/pkg/blog/store"
)

// Store is the subset of the store used by the post API
type Store interface {
	FilterPosts(ctx context.Context, f store.PostFilter) ([]models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post, tagNames []string) error
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
}

// Handler handles post-related requests
type Handler struct {
	store Store
}

// NewHandler creates a new posts handler
func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

// CreatePostRequest represents the request to create a post
type CreatePostRequest struct {
	Title      string     `json:"title" binding:"required,max=100"`
	Body       string     `json:"body"`
	Excerpt    string     `json:"excerpt" binding:"max=200"`
	CategoryID uint       `json:"category_id" binding:"required"`
	Tags       []string   `json:"tags"`
	CreateTime *time.Time `json:"create_time"`
}

// UpdatePostRequest represents the request to update a post.
// Omitted fields are left unchanged; an empty excerpt is derived again.
type UpdatePostRequest struct {
	Title      string     `json:"title" binding:"omitempty,max=100"`
	Body       *string    `json:"body"`
	Excerpt    *string    `json:"excerpt" binding:"omitempty,max=200"`
	CategoryID uint       `json:"category_id"`
	CreateTime *time.Time `json:"create_time"`
}

// Ref is a compact reference to a related row
type Ref struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PostResponse represents a post in API responses
type PostResponse struct {
	ID           uint     `json:"id"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Excerpt      string   `json:"excerpt"`
	URL          string   `json:"url"`
	Category     Ref      `json:"category"`
	Author       Ref      `json:"author"`
	Tags         []string `json:"tags"`
	Views        uint     `json:"views"`
	CreateTime   string   `json:"create_time"`
	ModifiedTime string   `json:"modified_time"`
}

// CommentResponse represents a comment in API responses
type CommentResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url,omitempty"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func postToResponse(post models.Post) PostResponse {
	tags := make([]string, len(post.Tags))
	for i, t := range post.Tags {
		tags[i] = t.Name
	}
	return PostResponse{
		ID:           post.ID,
		Title:        post.Title,
		Body:         post.Body,
		Excerpt:      post.Excerpt,
		URL:          post.URL(),
		Category:     Ref{ID: post.CategoryID, Name: post.Category.Name},
		Author:       Ref{ID: post.AuthorID, Name: post.Author.Name},
		Tags:         tags,
		Views:        post.Views,
		CreateTime:   post.CreateTime.UTC().Format(time.RFC3339),
		ModifiedTime: post.ModifiedTime.UTC().Format(time.RFC3339),
	}
}

func commentToResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		Name:      comment.Name,
		URL:       comment.URL,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// parseFilter reads the optional listing filters from the query string
func parseFilter(c *gin.Context) (store.PostFilter, error) {
	var f store.PostFilter
	ints := []struct {
		name string
		dst  *int
	}{
		{"year", &f.Year},
		{"month", &f.Month},
		{"limit", &f.Limit},
	}
	for _, q := range ints {
		if v := c.Query(q.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, fmt.Errorf("invalid %s", q.name)
			}
			*q.dst = n
		}
	}
	if (f.Year == 0) != (f.Month == 0) {
		return f, errors.New("year and month must be given together")
	}

	ids := []struct {
		name string
		dst  *uint
	}{
		{"category", &f.CategoryID},
		{"tag", &f.TagID},
	}
	for _, q := range ids {
		if v := c.Query(q.name); v != "" {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return f, fmt.Errorf("invalid %s", q.name)
			}
			*q.dst = uint(n)
		}
	}
	return f, nil
}

func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return 0, false
	}
	return uint(id), true
}

// loadPost fetches the post named in the path, answering 404 or 500 itself
func (h *Handler) loadPost(c *gin.Context) (*models.Post, bool) {
	id, ok := postID(c)
	if !ok {
		return nil, false
	}
	post, err := h.store.GetPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		} else {
			log.Printf("Failed to fetch post %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		}
		return nil, false
	}
	return post, true
}

// contextKeyPost holds the post loaded by authorOf for the handler that follows
const contextKeyPost = "post"

// authorOf loads the post in the path for the author check
func (h *Handler) authorOf(c *gin.Context) (uint, bool) {
	post, ok := h.loadPost(c)
	if !ok {
		return 0, false
	}
	c.Set(contextKeyPost, post)
	return post.AuthorID, true
}

// List returns posts, newest first
// @Summary List posts
// @Description List posts newest first, optionally restricted to a month, category or tag
// @Tags posts
// @Produce json
// @Param year query int false "Archive year (requires month)"
// @Param month query int false "Archive month 1-12 (requires year)"
// @Param category query int false "Category ID"
// @Param tag query int false "Tag ID"
// @Param limit query int false "Maximum number of posts"
// @Success 200 {array} PostResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Router /posts [get]
func (h *Handler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	posts, err := h.store.FilterPosts(c.Request.Context(), filter)
	if err != nil {
		log.Printf("Failed to list posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	responses := make([]PostResponse, len(posts))
	for i, post := range posts {
		responses[i] = postToResponse(post)
	}

	c.JSON(http.StatusOK, responses)
}

// Get returns a post by ID
// @Summary Get a post
// @Description Get a post with its Markdown body
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

// Create creates a new post authored by the caller
// @Summary Create a post
// @Description Create a post; the excerpt is derived from the body when omitted
// @Tags posts
// @Accept json
// @Produce json
// @Param request body CreatePostRequest true "Post details"
// @Success 201 {object} PostResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /posts [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.Post{
		Title:      req.Title,
		Body:       req.Body,
		Excerpt:    req.Excerpt,
		CategoryID: req.CategoryID,
		AuthorID:   userID,
	}
	if req.CreateTime != nil {
		post.CreateTime = *req.CreateTime
	}

	ctx := c.Request.Context()
	if err := h.store.CreatePost(ctx, &post, req.Tags); err != nil {
		if errors.Is(err, store.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
			return
		}
		if store.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Failed to create post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	// Reload for category and author names
	created, err := h.store.GetPost(ctx, post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	c.JSON(http.StatusCreated, postToResponse(*created))
}

// Update updates a post
// @Summary Update a post
// @Description Update a post; only its author or an admin may do so
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body UpdatePostRequest true "Updated post details"
// @Success 200 {object} PostResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Post not found"
// @Security BearerAuth
// @Router /posts/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	post := c.MustGet(contextKeyPost).(*models.Post)

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Update fields
	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.CategoryID != 0 {
		post.CategoryID = req.CategoryID
	}
	if req.CreateTime != nil {
		post.CreateTime = *req.CreateTime
	}

	ctx := c.Request.Context()
	if err := h.store.UpdatePost(ctx, post); err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidCategory):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case store.IsValidation(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Failed to update post %d: %v", post.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		}
		return
	}

	updated, err := h.store.GetPost(ctx, post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	c.JSON(http.StatusOK, postToResponse(*updated))
}

// Delete deletes a post
// @Summary Delete a post
// @Description Delete a post; only its author or an admin may do so
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} map[string]string "Post deleted"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Post not found"
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	post := c.MustGet(contextKeyPost).(*models.Post)

	if err := h.store.DeletePost(c.Request.Context(), post.ID); err != nil {
		log.Printf("Failed to delete post %d: %v", post.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// ListComments returns the comments of a post, newest first
// @Summary List comments
// @Description List the reader comments of a post, newest first
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} CommentResponse
// @Failure 404 {object} map[string]string "Post not found"
// @Router /posts/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}

	comments, err := h.store.ListComments(c.Request.Context(), post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	responses := make([]CommentResponse, len(comments))
	for i, comment := range comments {
		responses[i] = commentToResponse(comment)
	}

	c.JSON(http.StatusOK, responses)
}

// RegisterRoutes registers post routes. Reads are public, writes need a token.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/posts", h.List)
	rg.GET("/posts/:id", h.Get)
	rg.GET("/posts/:id/comments", h.ListComments)

	authed := rg.Group("", auth.AuthMiddleware())
	authed.POST("/posts", h.Create)
	authed.PUT("/posts/:id", auth.RequireAuthorOrAdmin(h.authorOf, "edit this post"), h.Update)
	authed.DELETE("/posts/:id", auth.RequireAuthorOrAdmin(h.authorOf, "delete this post"), h.Delete)
}
