package views

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/models"
	"github.com/mikepea/blog/pkg/blog/store"
	"golang.org/x/text/language"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	store    *store.Store
	router   *gin.Engine
	author   models.User
	category models.Category
}

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	env := &testEnv{store: store.New(db, time.UTC)}
	env.author = models.User{Email: "author@example.com", Name: "Author", PasswordHash: "hash"}
	if err := env.store.CreateUser(context.Background(), &env.author); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	env.category = models.Category{Name: "Django"}
	if err := env.store.CreateCategory(context.Background(), &env.category); err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	renderer, err := NewRenderer(time.UTC, language.English)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HTMLRender = renderer
	handler := NewHandler(env.store, Options{SiteTitle: "Test Blog", HighlightStyle: "monokai"})
	handler.RegisterRoutes(r)
	r.NoRoute(handler.NotFound)
	env.router = r
	return env
}

func (env *testEnv) createPost(t *testing.T, title, body string, created time.Time, tags ...string) models.Post {
	post := models.Post{
		Title:      title,
		Body:       body,
		CreateTime: created,
		CategoryID: env.category.ID,
		AuthorID:   env.author.ID,
	}
	if err := env.store.CreatePost(context.Background(), &post, tags); err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return post
}

func (env *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestIndexNewestFirst(t *testing.T) {
	env := setupTestEnv(t)
	base := time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC)
	env.createPost(t, "Older post", "old", base)
	env.createPost(t, "Newer post", "new", base.Add(time.Hour))

	w := env.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	newer := strings.Index(body, "Newer post")
	older := strings.Index(body, "Older post")
	if newer < 0 || older < 0 {
		t.Fatalf("Expected both posts in listing, got %s", body)
	}
	if newer > older {
		t.Error("Expected newer post to be listed first")
	}
	if !strings.Contains(body, "Test Blog") {
		t.Error("Expected site title on page")
	}
}

func TestIndexEmpty(t *testing.T) {
	env := setupTestEnv(t)

	w := env.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No posts have been published yet.") {
		t.Error("Expected empty listing message")
	}
}

func TestIndexShowsExcerpt(t *testing.T) {
	env := setupTestEnv(t)
	env.createPost(t, "Markdown", "Some **bold** words", time.Now())

	body := env.get("/").Body.String()
	if !strings.Contains(body, "Some bold words") || strings.Contains(body, "<strong>bold</strong>") {
		t.Errorf("Expected plain-text excerpt in listing, got %s", body)
	}
}

func TestDetail(t *testing.T) {
	env := setupTestEnv(t)
	post := env.createPost(t, "Detailed", "# Intro\n\nHello **there**\n\n```go\nfunc main() {}\n```\n", time.Now(), "golang")

	w := env.get(post.URL())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	checks := []string{
		"<strong>there</strong>",
		"<nav>",
		`class="codehilite"`,
		"golang",
		"Leave a comment",
		"No comments yet.",
	}
	for _, want := range checks {
		if !strings.Contains(body, want) {
			t.Errorf("Expected detail page to contain %q", want)
		}
	}
}

func TestDetailWithoutHeadingsHasNoTOC(t *testing.T) {
	env := setupTestEnv(t)
	post := env.createPost(t, "Plain", "Just a paragraph.", time.Now())

	body := env.get(post.URL()).Body.String()
	if strings.Contains(body, "<nav>") {
		t.Error("Expected no table of contents for a body without headings")
	}
}

func TestDetailIncrementsViews(t *testing.T) {
	env := setupTestEnv(t)
	post := env.createPost(t, "Counted", "body", time.Now())

	for i := 0; i < 3; i++ {
		if w := env.get(post.URL()); w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
	}

	loaded, err := env.store.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if loaded.Views != 3 {
		t.Errorf("Expected 3 views, got %d", loaded.Views)
	}
}

func TestDetailNotFound(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{"/post/999/", "/post/abc/", "/post/0/"} {
		w := env.get(path)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Page not found") {
			t.Errorf("%s: expected 404 page", path)
		}
	}
}

func TestArchives(t *testing.T) {
	env := setupTestEnv(t)
	env.createPost(t, "April post", "a", time.Date(2023, 4, 30, 23, 0, 0, 0, time.UTC))
	env.createPost(t, "May post", "m", time.Date(2023, 5, 15, 12, 0, 0, 0, time.UTC))

	w := env.get("/archives/2023/5/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	// Sidebar lists every post, so check the article markup only
	body := w.Body.String()
	if !strings.Contains(body, `<h2 class="entry-title"><a href="/post/2/">May post</a></h2>`) {
		t.Error("Expected May post in May archive")
	}
	if strings.Contains(body, `<h2 class="entry-title"><a href="/post/1/">April post</a></h2>`) {
		t.Error("Expected April post to be excluded from May archive")
	}
	if !strings.Contains(body, "/archives/2023/4/") {
		t.Error("Expected sidebar to link the April archive")
	}
}

func TestArchivesInvalidMonth(t *testing.T) {
	env := setupTestEnv(t)
	env.createPost(t, "Some post", "s", time.Date(2023, 5, 15, 12, 0, 0, 0, time.UTC))

	w := env.get("/archives/2023/13/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No posts have been published yet.") {
		t.Error("Expected empty listing for month 13")
	}

	if w := env.get("/archives/2023/may/"); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for non-numeric month, got %d", w.Code)
	}
}

func TestCategory(t *testing.T) {
	env := setupTestEnv(t)
	env.createPost(t, "Filed", "f", time.Now())

	other := models.Category{Name: "Other"}
	if err := env.store.CreateCategory(context.Background(), &other); err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	w := env.get(env.category.URL())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Filed") {
		t.Error("Expected post in its category listing")
	}

	w = env.get(other.URL())
	if !strings.Contains(w.Body.String(), "No posts have been published yet.") {
		t.Error("Expected empty listing for category without posts")
	}

	if w := env.get("/category/999/"); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing category, got %d", w.Code)
	}
}

func TestTag(t *testing.T) {
	env := setupTestEnv(t)
	env.createPost(t, "Tagged", "t", time.Now(), "golang")

	tags, err := env.store.ListTags(context.Background())
	if err != nil || len(tags) != 1 {
		t.Fatalf("Expected one tag, got %v (%v)", tags, err)
	}

	w := env.get(tags[0].URL())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `<a href="/post/1/">Tagged</a></h2>`) {
		t.Error("Expected tagged post in tag listing")
	}

	if w := env.get("/tag/999/"); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing tag, got %d", w.Code)
	}
}

func TestPostComment(t *testing.T) {
	env := setupTestEnv(t)
	post := env.createPost(t, "Commented", "c", time.Now())

	w := env.postForm("/comment/post/1/", url.Values{
		"name":  {"Reader"},
		"email": {"reader@example.com"},
		"url":   {"https://example.com"},
		"text":  {"Great post"},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != post.URL() {
		t.Errorf("Expected redirect to %s, got %s", post.URL(), loc)
	}

	comments, _ := env.store.ListComments(context.Background(), post.ID)
	if len(comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(comments))
	}

	body := env.get(post.URL()).Body.String()
	if !strings.Contains(body, "Great post") {
		t.Error("Expected comment on detail page")
	}
}

func TestPostCommentInvalid(t *testing.T) {
	env := setupTestEnv(t)
	post := env.createPost(t, "Commented", "c", time.Now())

	w := env.postForm("/comment/post/1/", url.Values{
		"name":  {"Reader"},
		"email": {"not-an-email"},
		"text":  {""},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Enter a valid email address.") {
		t.Error("Expected email error on re-rendered form")
	}
	if !strings.Contains(body, "This field is required.") {
		t.Error("Expected required error on re-rendered form")
	}
	if !strings.Contains(body, `value="Reader"`) {
		t.Error("Expected submitted values to be kept")
	}

	comments, _ := env.store.ListComments(context.Background(), post.ID)
	if len(comments) != 0 {
		t.Errorf("Expected no comment to be saved, got %d", len(comments))
	}

	loaded, _ := env.store.GetPost(context.Background(), post.ID)
	if loaded.Views != 0 {
		t.Errorf("Expected a rejected comment not to count as a view, got %d", loaded.Views)
	}
}

func TestPostCommentWhitespaceName(t *testing.T) {
	env := setupTestEnv(t)
	post := env.createPost(t, "Commented", "c", time.Now())

	w := env.postForm("/comment/post/1/", url.Values{
		"name":  {"   "},
		"email": {"reader@example.com"},
		"text":  {"hi"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "This field is required.") {
		t.Error("Expected required error for a blank name")
	}

	comments, _ := env.store.ListComments(context.Background(), post.ID)
	if len(comments) != 0 {
		t.Errorf("Expected no comment to be saved, got %d", len(comments))
	}
}

func TestPostCommentMissingPost(t *testing.T) {
	env := setupTestEnv(t)

	w := env.postForm("/comment/post/42/", url.Values{
		"name":  {"Reader"},
		"email": {"reader@example.com"},
		"text":  {"Hello"},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestSidebar(t *testing.T) {
	env := setupTestEnv(t)
	env.createPost(t, "Sidebar post", "s", time.Date(2022, 12, 24, 10, 0, 0, 0, time.UTC), "holiday")

	body := env.get("/").Body.String()
	checks := []string{
		"Recent posts",
		"/archives/2022/12/",
		"December 2022",
		"Django",
		"(1)",
		"holiday",
	}
	for _, want := range checks {
		if !strings.Contains(body, want) {
			t.Errorf("Expected sidebar to contain %q", want)
		}
	}
}

func TestHighlightCSS(t *testing.T) {
	env := setupTestEnv(t)

	w := env.get("/static/highlight.css")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Expected text/css, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), ".chroma") {
		t.Error("Expected chroma stylesheet")
	}
}

func TestUnknownRoute(t *testing.T) {
	env := setupTestEnv(t)

	if w := env.get("/no/such/page"); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRendererNumberFormatting(t *testing.T) {
	env := setupTestEnv(t)
	post := env.createPost(t, "Popular", "p", time.Now())

	db := env.store
	for i := 0; i < 2; i++ {
		if err := db.IncreaseViews(context.Background(), post.ID); err != nil {
			t.Fatalf("IncreaseViews failed: %v", err)
		}
	}

	body := env.get("/").Body.String()
	if !strings.Contains(body, "2 views") {
		t.Error("Expected view count in listing")
	}
}
