package categories

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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

func setupTestRouter(s *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(s)
	api := r.Group("/api")
	handler.RegisterRoutes(api)
	return r
}

func createCategory(t *testing.T, r *gin.Engine, name, token string) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(CreateCategoryRequest{Name: name})
	req, _ := http.NewRequest("POST", "/api/categories", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateCategoryAsAdmin(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	token, _ := auth.GenerateToken(1, "admin@example.com", string(models.SystemRoleAdmin))

	resp := createCategory(t, router, "Python", token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var category CategoryResponse
	json.Unmarshal(resp.Body.Bytes(), &category)
	if category.Name != "Python" || category.URL != "/category/1/" {
		t.Errorf("Unexpected category %+v", category)
	}
}

func TestCreateCategoryRequiresAdmin(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	token, _ := auth.GenerateToken(2, "user@example.com", string(models.SystemRoleUser))

	if resp := createCategory(t, router, "Python", token); resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.Code)
	}
	if resp := createCategory(t, router, "Python", ""); resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	token, _ := auth.GenerateToken(1, "admin@example.com", string(models.SystemRoleAdmin))

	if resp := createCategory(t, router, "", token); resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

func TestListCategories(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	ctx := context.Background()

	for _, name := range []string{"Rust", "Go"} {
		if err := s.CreateCategory(ctx, &models.Category{Name: name}); err != nil {
			t.Fatalf("Failed to create category: %v", err)
		}
	}

	req, _ := http.NewRequest("GET", "/api/categories", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	var categories []CategoryResponse
	json.Unmarshal(resp.Body.Bytes(), &categories)
	if len(categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(categories))
	}
	if categories[0].Name != "Go" || categories[0].PostCount != 0 {
		t.Errorf("Expected Go first with no posts, got %+v", categories[0])
	}
}
