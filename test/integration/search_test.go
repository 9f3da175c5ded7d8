// Package integration contains tests that verify the interaction between
// multiple components of the search service against a real PostgreSQL
// database, skipping when one isn't reachable.
//
// Run with:
//
//	go test -v -tags=integration ./test/integration/...
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/elias-vance/lexishard/internal/indexer"
	"github.com/elias-vance/lexishard/internal/normalize"
	"github.com/elias-vance/lexishard/internal/searchguard"
	"github.com/elias-vance/lexishard/internal/searchsvc"
	"github.com/elias-vance/lexishard/internal/shard"
	"github.com/elias-vance/lexishard/pkg/config"
	"github.com/elias-vance/lexishard/pkg/postgres"
)

func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	cfg := testPostgresConfig()
	db, err := postgres.New(cfg)
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "lexishard_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "lexishard"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// newSearchServer builds a real searchsvc.Service, backed by a small
// on-disk corpus, guarded by a real Postgres-backed searchguard.
func newSearchServer(t *testing.T, db *postgres.Client) (*httptest.Server, *searchguard.KeyValidator) {
	t.Helper()

	inputDir := t.TempDir()
	indexDir := filepath.Join(t.TempDir(), "shards")

	if err := os.WriteFile(filepath.Join(inputDir, "doc1.txt"), []byte("market predict market share"), 0o644); err != nil {
		t.Fatal(err)
	}
	built, err := indexer.BuildIndex(inputDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := shard.Write(built.Index, indexDir, 2); err != nil {
		t.Fatal(err)
	}

	norm := normalize.New(map[string]struct{}{})
	validator := searchguard.NewKeyValidator(db)
	limiter := searchguard.NewLimiter(time.Minute)
	guard := searchguard.New(validator, limiter)

	svc, err := searchsvc.New(searchsvc.Config{
		IndexDir:     indexDir,
		InputDir:     inputDir,
		Normalizer:   norm,
		Guard:        guard,
		DefaultLimit: 10,
		MaxResults:   100,
	})
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", svc.HTTPHandler())
	return httptest.NewServer(mux), validator
}

// TestUnauthenticatedSearchRejected verifies /search rejects requests
// without an API key.
func TestUnauthenticatedSearchRejected(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv, _ := newSearchServer(t, db)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search?q=market+share")
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

// TestAPIKeyLifecycle exercises creating, using, and revoking a key
// against a real Postgres-backed validator.
func TestAPIKeyLifecycle(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv, validator := newSearchServer(t, db)
	defer srv.Close()

	rawKey, err := validator.CreateKey(context.Background(), "integration-test", 100, 0, nil)
	if err != nil {
		t.Fatalf("creating key: %v", err)
	}

	req, _ := http.NewRequest("GET", srv.URL+"/search?q=market+share", nil)
	req.Header.Set("X-API-Key", rawKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if err := validator.RevokeKey(context.Background(), rawKey); err != nil {
		t.Fatalf("revoking key: %v", err)
	}

	req2, _ := http.NewRequest("GET", srv.URL+"/search?q=market+share", nil)
	req2.Header.Set("X-API-Key", rawKey)
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("search request after revoke failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after revoke, got %d", resp2.StatusCode)
	}
}

// TestSearchRateLimiting verifies a key created with a low rate limit is
// rejected once it's exhausted.
func TestSearchRateLimiting(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv, validator := newSearchServer(t, db)
	defer srv.Close()

	rawKey, err := validator.CreateKey(context.Background(), "ratelimit-test", 2, 0, nil)
	if err != nil {
		t.Fatalf("creating key: %v", err)
	}

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", srv.URL+"/search?q=market", nil)
		req.Header.Set("X-API-Key", rawKey)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	req, _ := http.NewRequest("GET", srv.URL+"/search?q=market", nil)
	req.Header.Set("X-API-Key", rawKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("rate limit request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp.StatusCode)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
