package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/nlp/nlptest"
	"github.com/cognicore/revaudit/pkg/revaudit/normalize"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Pipeline.ChunkSize != 10000 || !cfg.Pipeline.UseParallel || cfg.Pipeline.WorkerCount != 0 {
		t.Errorf("Unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Audit.PolarityThreshold != 0.3 || cfg.Audit.MinNegativeKeywords != 2 {
		t.Errorf("Unexpected audit defaults: %+v", cfg.Audit)
	}
	if cfg.NormalizeOptions().Emoji != normalize.EmojiRemove {
		t.Errorf("Expected emoji policy remove, got %q", cfg.Normalize.EmojiPolicy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
	if cfg.CoordinatorOptions().Workers < 1 {
		t.Errorf("Worker count 0 should resolve to at least 1, got %d", cfg.CoordinatorOptions().Workers)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "revaudit.yaml", `
pipeline:
  chunk_size: 500
  use_parallel: false
audit:
  polarity_threshold: 0.5
  negative_keywords: [junk, meh]
normalize:
  emoji_policy: convert
  strip_hashtags: true
  custom_stopwords: [amazon]
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Pipeline.ChunkSize != 500 || cfg.Pipeline.UseParallel {
		t.Errorf("Pipeline not loaded: %+v", cfg.Pipeline)
	}
	if cfg.Audit.PolarityThreshold != 0.5 || len(cfg.Audit.NegativeKeywords) != 2 {
		t.Errorf("Audit not loaded: %+v", cfg.Audit)
	}
	if cfg.Audit.MinNegativeKeywords != 2 || len(cfg.Audit.PositiveKeywords) == 0 {
		t.Error("Missing audit keys should keep defaults")
	}
	opts := cfg.NormalizeOptions()
	if opts.Emoji != normalize.EmojiConvert || !opts.StripHashtags || len(opts.CustomStopwords) != 1 {
		t.Errorf("Normalize section not loaded: %+v", opts)
	}
	if !opts.StripURLs || opts.MinTokenLength != 2 {
		t.Error("Missing normalize keys should keep defaults")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Logging.Level)
	}
}

func TestEmojiPolicyLongSpelling(t *testing.T) {
	path := writeFile(t, t.TempDir(), "revaudit.yaml", "normalize:\n  emoji_policy: convert-to-text\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("convert-to-text should validate, got %v", err)
	}
	if got := cfg.NormalizeOptions().Emoji; got != normalize.EmojiConvert {
		t.Errorf("Expected emoji policy %q, got %q", normalize.EmojiConvert, got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("/nonexistent/revaudit.yaml"); err == nil {
		t.Error("Should error on non-existent file")
	}

	path := writeFile(t, t.TempDir(), "bad.yaml", "pipeline: [not, a, map\n")
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for malformed YAML, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvChunkSize: "250",
		EnvWorkers:   " 3 ",
		EnvParallel:  "false",
		EnvThreshold: "0.45",
		EnvLogLevel:  "warn",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Pipeline.ChunkSize != 250 || cfg.Pipeline.WorkerCount != 3 || cfg.Pipeline.UseParallel {
		t.Errorf("Pipeline overrides not applied: %+v", cfg.Pipeline)
	}
	if cfg.Audit.PolarityThreshold != 0.45 {
		t.Errorf("Expected threshold 0.45, got %v", cfg.Audit.PolarityThreshold)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %q", cfg.Logging.Level)
	}
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	for _, key := range []string{EnvChunkSize, EnvWorkers, EnvParallel, EnvThreshold} {
		cfg := Default()
		err := cfg.ApplyEnv(envMap(map[string]string{key: "lots"}))
		if !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", key, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Pipeline.ChunkSize = 0 }},
		{"negative workers", func(c *Config) { c.Pipeline.WorkerCount = -2 }},
		{"threshold above 1", func(c *Config) { c.Audit.PolarityThreshold = 1.2 }},
		{"inverted token bounds", func(c *Config) { c.Normalize.MinTokenLength = 9; c.Normalize.MaxTokenLength = 3 }},
		{"unknown emoji policy", func(c *Config) { c.Normalize.EmojiPolicy = "translate" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "REVAUDIT_ENVFILE_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	path := writeFile(t, dir, ".env", key+"=from-file\n")

	if err := LoadEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("Expected %q, got %q", "from-file", got)
	}
}

func TestLoaderConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "revaudit.yaml", "pipeline:\n  chunk_size: 500\n  worker_count: 2\n")

	loader := Loader{
		ConfigPath: path,
		EnvFiles:   []string{filepath.Join(dir, "none.env")},
		Lookup:     envMap(map[string]string{EnvWorkers: "6"}),
	}
	cfg, err := loader.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.Pipeline.ChunkSize != 500 {
		t.Errorf("File value should apply, got chunk size %d", cfg.Pipeline.ChunkSize)
	}
	if cfg.Pipeline.WorkerCount != 6 {
		t.Errorf("Environment should override file, got %d workers", cfg.Pipeline.WorkerCount)
	}

	loader.Lookup = envMap(map[string]string{EnvChunkSize: "0"})
	if _, err := loader.Config(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Invalid override should fail validation, got %v", err)
	}

	loader = Loader{ConfigPath: "/nonexistent/revaudit.yaml"}
	if _, err := loader.Config(); err == nil {
		t.Error("Should error on nonexistent config file")
	}
}

func TestBuildWithStub(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Resources.Stoplist = writeFile(t, dir, "stop.yaml", "terms:\n  - product\n")

	comp, err := Build(cfg, &nlptest.Stub{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if comp.Normalizer == nil || comp.Extractor == nil || comp.Auditor == nil || comp.Processor == nil {
		t.Fatal("All components should be built")
	}
	if got := comp.Normalizer.Normalize("the product works"); got != "the works" {
		t.Errorf("Custom stoplist should replace the built-in one, got %q", got)
	}
	if comp.Coordinator.ChunkSize != cfg.Pipeline.ChunkSize {
		t.Errorf("Expected coordinator chunk size %d, got %d", cfg.Pipeline.ChunkSize, comp.Coordinator.ChunkSize)
	}
}

func TestBuildErrors(t *testing.T) {
	cfg := Default()
	cfg.Resources.Stoplist = "/nonexistent/stop.yaml"
	if _, err := Build(cfg, &nlptest.Stub{}); err == nil {
		t.Error("Should error on nonexistent stoplist")
	}

	cfg = Default()
	cfg.Normalize.Language = "klingon"
	if _, err := Build(cfg, &nlptest.Stub{}); err == nil {
		t.Error("Should error on unsupported language")
	}

	cfg = Default()
	cfg.Resources.Contractions = "/nonexistent/contractions.yaml"
	if _, err := Build(cfg, nil); err == nil {
		t.Error("Should error on nonexistent contraction table")
	}
}
