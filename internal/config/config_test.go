package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	t.Setenv("AUTOSNIPER_DATA_DIR", "")
	t.Setenv("AUTOSNIPER_PG_DSN", "")
	t.Setenv("AUTOSNIPER_LOG_LEVEL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "CSV_data" {
		t.Errorf("DataDir got %q, want %q", cfg.DataDir, "CSV_data")
	}
	if got, want := cfg.Path(cfg.CanonicalFile), filepath.Join("CSV_data", "vehicle_static_details.csv"); got != want {
		t.Errorf("canonical path got %q, want %q", got, want)
	}
	if cfg.MirrorEnabled() {
		t.Errorf("mirror should be disabled without a DSN")
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level got %v, want %v", cfg.Level(), slog.LevelInfo)
	}
}

func TestLoad_fileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autosniper.yaml")
	content := `data_dir: /var/lib/autosniper
http_timeout: 45s
fetch_attempts: 4
log_level: debug
pg_dsn: postgres://localhost/autosniper
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigEnv, "")
	t.Setenv("AUTOSNIPER_DATA_DIR", "/srv/data")
	t.Setenv("AUTOSNIPER_RETRY_DELAY", "500ms")
	t.Setenv("AUTOSNIPER_HTTP_TIMEOUT", "")
	t.Setenv("AUTOSNIPER_FETCH_ATTEMPTS", "")
	t.Setenv("AUTOSNIPER_LOG_LEVEL", "")
	t.Setenv("AUTOSNIPER_PG_DSN", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataDir != "/srv/data" {
		t.Errorf("DataDir got %q, want env override %q", cfg.DataDir, "/srv/data")
	}
	if cfg.HTTPTimeout != 45*time.Second {
		t.Errorf("HTTPTimeout got %v, want %v", cfg.HTTPTimeout, 45*time.Second)
	}
	if cfg.FetchAttempts != 4 {
		t.Errorf("FetchAttempts got %d, want 4", cfg.FetchAttempts)
	}
	if cfg.RetryDelay != 500*time.Millisecond {
		t.Errorf("RetryDelay got %v, want %v", cfg.RetryDelay, 500*time.Millisecond)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level got %v, want %v", cfg.Level(), slog.LevelDebug)
	}
	if !cfg.MirrorEnabled() {
		t.Errorf("mirror should be enabled with a DSN")
	}
	if cfg.SoldFile != "sold_cars.csv" {
		t.Errorf("SoldFile got %q, want the default", cfg.SoldFile)
	}
}

func TestLoad_configPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autosniper.yaml")
	if err := os.WriteFile(path, []byte("port: \"9090\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigEnv, path)
	t.Setenv("PORT", "")
	t.Setenv("AUTOSNIPER_PORT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port got %q, want %q", cfg.Port, "9090")
	}
}

func TestLoad_invalidValues(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	t.Setenv("AUTOSNIPER_HTTP_TIMEOUT", "soon")
	t.Setenv("AUTOSNIPER_FETCH_ATTEMPTS", "many")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for invalid env values")
	}
	for _, key := range []string{"AUTOSNIPER_HTTP_TIMEOUT", "AUTOSNIPER_FETCH_ATTEMPTS"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q should mention %s", err, key)
		}
	}
}

func TestLoad_missingFile(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestSetupLoggerWithWriters_fansOut(t *testing.T) {
	t.Parallel()

	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("partition finished", "active", 3)

	if !strings.Contains(stderr.String(), "partition finished") || !strings.Contains(stderr.String(), "active=3") {
		t.Errorf("stderr got %q", stderr.String())
	}
	if !strings.Contains(file.String(), `"msg":"partition finished"`) || !strings.Contains(file.String(), `"active":3`) {
		t.Errorf("file got %q", file.String())
	}
	if strings.Contains(stderr.String(), "hidden") {
		t.Errorf("debug records should be filtered")
	}
}
