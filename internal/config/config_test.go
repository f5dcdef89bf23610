package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXAMPLES_DIR", "/srv/examples")
	t.Setenv("ENVIRONMENT", "prod")

	cfg := Load()
	if cfg.TrashDir != "/srv/examples_trash" {
		t.Errorf("TrashDir = %q, want derived from EXAMPLES_DIR", cfg.TrashDir)
	}
	if cfg.Debug {
		t.Error("Debug defaults to true in prod")
	}
	if cfg.GenerationConcurrency != 1 {
		t.Errorf("GenerationConcurrency = %d, want sequential by default", cfg.GenerationConcurrency)
	}
}

func TestLoadParsesTypedValues(t *testing.T) {
	t.Setenv("VARIANT_COUNT", "5")
	t.Setenv("TEMPERATURE", "0.25")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("PARSER_STRICT", "true")
	t.Setenv("MAX_TOKENS", "lots")

	cfg := Load()
	if cfg.VariantCount != 5 {
		t.Errorf("VariantCount = %d", cfg.VariantCount)
	}
	if cfg.Temperature != 0.25 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if cfg.GenerationTimeout != 45*time.Second {
		t.Errorf("GenerationTimeout = %v", cfg.GenerationTimeout)
	}
	if !cfg.ParserStrict {
		t.Error("ParserStrict not set")
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default for unparseable value", cfg.MaxTokens)
	}
}

func TestGenerationWriteTimeoutCoversMaxVariants(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want time.Duration
	}{
		{"sequential", Config{GenerationTimeout: time.Minute, GenerationConcurrency: 1}, 10*time.Minute + 30*time.Second},
		{"unset concurrency is sequential", Config{GenerationTimeout: time.Minute}, 10*time.Minute + 30*time.Second},
		{"partial last wave", Config{GenerationTimeout: time.Minute, GenerationConcurrency: 3}, 4*time.Minute + 30*time.Second},
		{"all at once", Config{GenerationTimeout: time.Minute, GenerationConcurrency: 10}, time.Minute + 30*time.Second},
		{"paced", Config{GenerationTimeout: time.Minute, GenerationConcurrency: 10, GenerationRatePerSec: 0.5}, time.Minute + 50*time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GenerationWriteTimeout(); got != tt.want {
				t.Errorf("GenerationWriteTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetupLogFileKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"server-2026-01-01T00-00-00.log", "server-2026-01-02T00-00-00.log", "other-2026-01-01T00-00-00.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	f, err := SetupLogFile(dir, "server", 2)
	if err != nil {
		t.Fatalf("SetupLogFile: %v", err)
	}
	f.Close()

	matches, _ := filepath.Glob(filepath.Join(dir, "server-*.log"))
	if len(matches) != 2 {
		t.Errorf("kept %d server logs, want 2: %v", len(matches), matches)
	}
	if _, err := os.Stat(filepath.Join(dir, "server-2026-01-01T00-00-00.log")); !os.IsNotExist(err) {
		t.Error("oldest log not removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "other-2026-01-01T00-00-00.log")); err != nil {
		t.Error("log with another prefix removed")
	}
}
