package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/elias-vance/lexishard/pkg/errors"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.NumShards != 8 {
		t.Fatalf("expected default num_shards 8, got %d", cfg.Index.NumShards)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "index:\n  numShards: 4\n  inputDir: /data/in\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.NumShards != 4 {
		t.Fatalf("expected num_shards 4, got %d", cfg.Index.NumShards)
	}
	if cfg.Index.InputDir != "/data/in" {
		t.Fatalf("expected input dir override, got %s", cfg.Index.InputDir)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LXS_INDEX_NUM_SHARDS", "16")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.NumShards != 16 {
		t.Fatalf("expected env override num_shards 16, got %d", cfg.Index.NumShards)
	}
}

func TestValidateRejectsNonPositiveShardCount(t *testing.T) {
	cfg := defaultConfig()
	cfg.Index.NumShards = 0
	err := cfg.Validate()
	if !errors.Is(err, apperrors.ConfigError) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestValidateRejectsMissingDirs(t *testing.T) {
	cfg := defaultConfig()
	cfg.Index.InputDir = ""
	if err := cfg.Validate(); !errors.Is(err, apperrors.ConfigError) {
		t.Fatalf("expected ConfigError for missing input dir, got %v", err)
	}
}
