package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  mode: test\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.Mode != "test" {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Reddit.UserAgent != "MemeFinderApp/1.0.0" || cfg.Reddit.Timeout != 30*time.Second {
		t.Errorf("unexpected reddit config: %+v", cfg.Reddit)
	}
	if cfg.Scorer.Model != "gpt-3.5-turbo" || cfg.Scorer.MaxTokens != 10 || cfg.Scorer.Temperature != 0.5 {
		t.Errorf("unexpected scorer config: %+v", cfg.Scorer)
	}

	want := SearchConfig{PageSize: 25, FetchLimit: 100, ScoreThreshold: 0.5, MinSubscribers: 10000}
	if cfg.Search != want {
		t.Errorf("search = %+v, want %+v", cfg.Search, want)
	}
	if !reflect.DeepEqual(cfg.Catalog.Subreddits, DefaultCatalog()) {
		t.Errorf("expected default catalog, got %v", cfg.Catalog.Subreddits)
	}
	if cfg.Storage.Enabled || !cfg.Metrics.Enabled {
		t.Errorf("unexpected feature flags: storage=%v metrics=%v", cfg.Storage.Enabled, cfg.Metrics.Enabled)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "env-client")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	path := writeConfig(t, `
server:
  port: 9090
search:
  page_size: 10
  max_concurrency: 8
scorer:
  timeout: 5s
catalog:
  subreddits: [funny, pics]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Search.PageSize != 10 || cfg.Search.MaxConcurrency != 8 {
		t.Errorf("file overrides not applied: %+v %+v", cfg.Server, cfg.Search)
	}
	if cfg.Scorer.Timeout != 5*time.Second {
		t.Errorf("scorer timeout = %v", cfg.Scorer.Timeout)
	}
	if !reflect.DeepEqual(cfg.Catalog.Subreddits, []string{"funny", "pics"}) {
		t.Errorf("catalog = %v", cfg.Catalog.Subreddits)
	}
	if cfg.Reddit.ClientID != "env-client" || cfg.Scorer.APIKey != "sk-env" {
		t.Errorf("env overrides not applied: client_id=%q api_key=%q", cfg.Reddit.ClientID, cfg.Scorer.APIKey)
	}
}

func TestLoad_EmptyCatalogFallsBack(t *testing.T) {
	cfg, err := Load(writeConfig(t, "catalog:\n  subreddits: []\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Catalog.Subreddits) != len(DefaultCatalog()) {
		t.Errorf("expected default catalog, got %v", cfg.Catalog.Subreddits)
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	if len(catalog) != 44 {
		t.Errorf("expected 44 subreddits, got %d", len(catalog))
	}

	seen := map[string]bool{}
	for _, name := range catalog {
		if seen[name] {
			t.Errorf("duplicate subreddit %q", name)
		}
		seen[name] = true
	}

	catalog[0] = "changed"
	if DefaultCatalog()[0] != "funny" {
		t.Error("DefaultCatalog must return a copy")
	}
}
