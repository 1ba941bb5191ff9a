// Package views serves the blog's HTML pages.
package views

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/markdown"
	"github.com/mikepea/blog/pkg/blog/models"
	"github.com/mikepea/blog/pkg/blog/store"
)

// RecentPostCount is the number of posts listed in the sidebar
const RecentPostCount = 5

// Store is the subset of the store the pages read from
type Store interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByMonth(ctx context.Context, year, month int) ([]models.Post, error)
	ListPostsByCategory(ctx context.Context, categoryID uint) ([]models.Post, error)
	ListPostsByTag(ctx context.Context, tagID uint) ([]models.Post, error)
	RecentPosts(ctx context.Context, n int) ([]models.Post, error)
	ArchiveMonths(ctx context.Context) ([]store.ArchiveMonth, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	IncreaseViews(ctx context.Context, id uint) error
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListCategories(ctx context.Context) ([]store.CategorySummary, error)
	ListTags(ctx context.Context) ([]store.TagSummary, error)
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
}

// Options configures the pages
type Options struct {
	SiteTitle      string
	HighlightStyle string
}

// Handler serves the HTML pages
type Handler struct {
	store     Store
	detail    *markdown.Renderer
	siteTitle string
	css       string
}

// NewHandler creates a new page handler
func NewHandler(s Store, opts Options) *Handler {
	detail := markdown.New(markdown.WithTOC(), markdown.WithStyle(opts.HighlightStyle))
	css, err := detail.CSS()
	if err != nil {
		log.Printf("Failed to generate highlight stylesheet: %v", err)
	}
	return &Handler{
		store:     s,
		detail:    detail,
		siteTitle: opts.SiteTitle,
		css:       css,
	}
}

// RegisterRoutes registers the page routes
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Index)
	r.GET("/post/:pk/", h.Detail)
	r.GET("/archives/:year/:month/", h.Archives)
	r.GET("/category/:pk/", h.Category)
	r.GET("/tag/:pk/", h.Tag)
	r.POST("/comment/post/:pk/", h.PostComment)
	r.GET("/static/highlight.css", h.HighlightCSS)
}

// Index lists every post, newest first
func (h *Handler) Index(c *gin.Context) {
	posts, err := h.store.ListPosts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderList(c, posts)
}

// Detail shows one post with its rendered body and comments
func (h *Handler) Detail(c *gin.Context) {
	id, ok := pk(c, "pk")
	if !ok {
		h.NotFound(c)
		return
	}

	ctx := c.Request.Context()
	post, err := h.store.GetPost(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.store.IncreaseViews(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	post.Views++

	h.renderDetail(c, http.StatusOK, post, CommentForm{}, map[string]string{})
}

// Archives lists the posts of one calendar month
func (h *Handler) Archives(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.NotFound(c)
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		h.NotFound(c)
		return
	}

	posts, err := h.store.ListPostsByMonth(c.Request.Context(), year, month)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderList(c, posts)
}

// Category lists the posts filed under one category
func (h *Handler) Category(c *gin.Context) {
	id, ok := pk(c, "pk")
	if !ok {
		h.NotFound(c)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetCategory(ctx, id); err != nil {
		h.fail(c, err)
		return
	}

	posts, err := h.store.ListPostsByCategory(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderList(c, posts)
}

// Tag lists the posts carrying one tag
func (h *Handler) Tag(c *gin.Context) {
	id, ok := pk(c, "pk")
	if !ok {
		h.NotFound(c)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetTag(ctx, id); err != nil {
		h.fail(c, err)
		return
	}

	posts, err := h.store.ListPostsByTag(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderList(c, posts)
}

// PostComment stores a reader comment and redirects back to the post.
// An invalid form re-renders the post with the field errors.
func (h *Handler) PostComment(c *gin.Context) {
	id, ok := pk(c, "pk")
	if !ok {
		h.NotFound(c)
		return
	}

	ctx := c.Request.Context()
	post, err := h.store.GetPost(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	form, err := bindCommentForm(c)
	if err != nil {
		h.renderDetail(c, http.StatusOK, post, form, FieldErrors(err))
		return
	}

	if err := h.store.CreateComment(ctx, form.Comment(post.ID)); err != nil {
		if store.IsValidation(err) {
			h.renderDetail(c, http.StatusOK, post, form, FieldErrors(err))
			return
		}
		h.fail(c, err)
		return
	}

	c.Redirect(http.StatusFound, post.URL())
}

// HighlightCSS serves the stylesheet for highlighted code blocks
func (h *Handler) HighlightCSS(c *gin.Context) {
	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(h.css))
}

// NotFound renders the 404 page
func (h *Handler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{"site_title": h.siteTitle})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.NotFound(c)
		return
	}
	log.Printf("Error serving %s: %v", c.Request.URL.Path, err)
	c.HTML(http.StatusInternalServerError, "500.html", gin.H{"site_title": h.siteTitle})
}

func (h *Handler) renderList(c *gin.Context, posts []models.Post) {
	data, err := h.page(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data["post_list"] = posts
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *Handler) renderDetail(c *gin.Context, status int, post *models.Post, form CommentForm, errs map[string]string) {
	ctx := c.Request.Context()
	comments, err := h.store.ListComments(ctx, post.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := h.page(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	post.Body = h.detail.Render(post.Body)
	data["post"] = post
	data["form"] = form
	data["errors"] = errs
	data["comment_list"] = comments
	c.HTML(status, "detail.html", data)
}

// page returns the data shared by every page: the site title and sidebar
func (h *Handler) page(ctx context.Context) (gin.H, error) {
	recent, err := h.store.RecentPosts(ctx, RecentPostCount)
	if err != nil {
		return nil, err
	}
	months, err := h.store.ArchiveMonths(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := h.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := h.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"site_title":     h.siteTitle,
		"recent_posts":   recent,
		"archive_months": months,
		"category_list":  categories,
		"tag_list":       tags,
	}, nil
}

func pk(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
