package importexport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/auth"
	"github.com/mikepea/blog/pkg/blog/models"
	"github.com/mikepea/blog/pkg/blog/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *store.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return store.New(db, nil)
}

func createTestUser(t *testing.T, s *store.Store, email string) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		SystemRole:   models.SystemRoleAdmin,
	}
	if err := s.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, s *store.Store, authorID uint, title string, created time.Time, tags ...string) models.Post {
	category, err := s.GetOrCreateCategory(context.Background(), "Archive")
	if err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}
	post := models.Post{
		Title:      title,
		Body:       "Body of " + title,
		CreateTime: created,
		CategoryID: category.ID,
		AuthorID:   authorID,
	}
	if err := s.CreatePost(context.Background(), &post, tags); err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
	return post
}

func setupTestRouter(s *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(s)

	api := r.Group("/api")
	api.Use(auth.AuthMiddleware())
	handler.RegisterRoutes(api)

	return r
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Email, string(user.SystemRole))
	return "Bearer " + token
}

func TestImport(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	user := createTestUser(t, s, "test@example.com")

	body := ImportRequest{
		Posts: []ExportedPost{
			{
				Title:      "Imported one",
				Body:       "First **post**",
				Category:   "Python",
				Tags:       []string{"django", "web"},
				CreateTime: "2017-05-01T10:00:00Z",
				Views:      99,
			},
			{
				Title:    "Imported two",
				Body:     "Second post",
				Excerpt:  "Custom",
				Category: "Python",
			},
		},
	}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/api/import", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result ImportResult
	json.Unmarshal(resp.Body.Bytes(), &result)

	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d (%v)", result.Imported, result.Errors)
	}

	posts, _ := s.ListPosts(context.Background())
	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}

	// Imported one is older, so it is listed last
	first := posts[1]
	if first.Title != "Imported one" {
		t.Fatalf("Expected 'Imported one' last, got %s", first.Title)
	}
	if first.Views != 0 {
		t.Errorf("Expected views to start at 0, got %d", first.Views)
	}
	if len(first.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %d", len(first.Tags))
	}
	if first.Excerpt == "" {
		t.Error("Expected derived excerpt")
	}
	if posts[0].Excerpt != "Custom" {
		t.Errorf("Expected supplied excerpt, got %q", posts[0].Excerpt)
	}
	if posts[0].CategoryID != first.CategoryID {
		t.Error("Expected both posts to share the created category")
	}
}

func TestImportInvalidEntries(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	user := createTestUser(t, s, "test@example.com")

	body := ImportRequest{
		Posts: []ExportedPost{
			{Title: "Bad time", Category: "Go", CreateTime: "yesterday"},
			{Title: "No category"},
			{Title: "", Category: "Go"},
			{Title: "Good", Category: "Go"},
		},
	}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/api/import", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var result ImportResult
	json.Unmarshal(resp.Body.Bytes(), &result)

	if result.Imported != 1 {
		t.Errorf("Expected 1 imported, got %d", result.Imported)
	}
	if result.Skipped != 3 {
		t.Errorf("Expected 3 skipped, got %d", result.Skipped)
	}
	if len(result.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %v", result.Errors)
	}
}

func TestImportRejectedEntryLeavesNoRows(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	user := createTestUser(t, s, "test@example.com")

	body := ImportRequest{
		Posts: []ExportedPost{
			{Title: "", Category: "Orphan", Tags: []string{"stray"}},
		},
	}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/api/import", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var result ImportResult
	json.Unmarshal(resp.Body.Bytes(), &result)
	if result.Skipped != 1 {
		t.Fatalf("Expected 1 skipped, got %d", result.Skipped)
	}

	categories, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(categories) != 0 {
		t.Errorf("Expected no category to be left behind, got %v", categories)
	}
	tags, err := s.ListTags(context.Background())
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("Expected no tag to be left behind, got %v", tags)
	}
}

func TestExport(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	user := createTestUser(t, s, "test@example.com")
	createTestPost(t, s, user.ID, "Old", time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), "history")
	createTestPost(t, s, user.ID, "New", time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC))

	req, _ := http.NewRequest("GET", "/api/export?download=true", nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	if resp.Header().Get("Content-Disposition") == "" {
		t.Error("Expected attachment header")
	}

	var exported []ExportedPost
	json.Unmarshal(resp.Body.Bytes(), &exported)

	if len(exported) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(exported))
	}
	if exported[0].Title != "New" {
		t.Errorf("Expected newest first, got %s", exported[0].Title)
	}
	old := exported[1]
	if old.Category != "Archive" || old.Author != "test@example.com" {
		t.Errorf("Unexpected export %+v", old)
	}
	if old.CreateTime != "2017-01-01T00:00:00Z" {
		t.Errorf("Expected RFC3339 time, got %s", old.CreateTime)
	}
	if len(old.Tags) != 1 || old.Tags[0] != "history" {
		t.Errorf("Expected history tag, got %v", old.Tags)
	}
}

func TestExportSingle(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	user := createTestUser(t, s, "test@example.com")
	createTestPost(t, s, user.ID, "Only", time.Now())

	req, _ := http.NewRequest("GET", "/api/export/1", nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	req, _ = http.NewRequest("GET", "/api/export/99", nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

func TestRoundTrip(t *testing.T) {
	source := setupTestStore(t)
	sourceRouter := setupTestRouter(source)
	user := createTestUser(t, source, "test@example.com")
	createTestPost(t, source, user.ID, "Travelling", time.Date(2019, 3, 4, 5, 6, 7, 0, time.UTC), "move")

	req, _ := http.NewRequest("GET", "/api/export", nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	sourceRouter.ServeHTTP(resp, req)

	var exported []ExportedPost
	json.Unmarshal(resp.Body.Bytes(), &exported)

	target := setupTestStore(t)
	targetRouter := setupTestRouter(target)
	targetUser := createTestUser(t, target, "other@example.com")

	jsonBody, _ := json.Marshal(ImportRequest{Posts: exported})
	req, _ = http.NewRequest("POST", "/api/import", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(targetUser))
	resp = httptest.NewRecorder()
	targetRouter.ServeHTTP(resp, req)

	posts, _ := target.ListPosts(context.Background())
	if len(posts) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(posts))
	}
	got := posts[0]
	if got.Title != "Travelling" || got.Category.Name != "Archive" || len(got.Tags) != 1 {
		t.Errorf("Unexpected imported post %+v", got)
	}
	if !got.CreateTime.Equal(time.Date(2019, 3, 4, 5, 6, 7, 0, time.UTC)) {
		t.Errorf("Expected create time to survive, got %v", got.CreateTime)
	}
}
