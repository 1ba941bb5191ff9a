package config

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" || cfg.Addr() != ":8080" {
		t.Errorf("Expected port 8080, got %q (addr %q)", cfg.Port, cfg.Addr())
	}
	if cfg.DBDriver != DriverSQLite {
		t.Errorf("Expected sqlite driver, got %q", cfg.DBDriver)
	}
	if cfg.DBDSN != "blog.db" {
		t.Errorf("Expected DSN blog.db, got %q", cfg.DBDSN)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("Expected 24h token TTL, got %v", cfg.TokenTTL)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Expected UTC, got %v", cfg.Location())
	}
	if cfg.LanguageTag() != language.English {
		t.Errorf("Expected English, got %v", cfg.LanguageTag())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BLOG_DB_DRIVER", "postgres")
	t.Setenv("BLOG_DB_DSN", "host=localhost user=blog dbname=blog")
	t.Setenv("BLOG_TOKEN_TTL", "2h")
	t.Setenv("BLOG_SITE_TITLE", "Notes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Addr() != ":9090" {
		t.Errorf("Expected addr :9090, got %q", cfg.Addr())
	}
	if cfg.DBDriver != DriverPostgres {
		t.Errorf("Expected postgres driver, got %q", cfg.DBDriver)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("Expected 2h token TTL, got %v", cfg.TokenTTL)
	}
	if cfg.SiteTitle != "Notes" {
		t.Errorf("Expected site title Notes, got %q", cfg.SiteTitle)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "BLOG_DB_DRIVER", "oracle"},
		{"unknown timezone", "BLOG_TIMEZONE", "Mars/Olympus"},
		{"bad duration", "BLOG_TOKEN_TTL", "soon"},
		{"bad language", "BLOG_LANGUAGE", "not a language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
