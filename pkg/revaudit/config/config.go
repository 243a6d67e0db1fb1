package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/revaudit/pkg/revaudit/audit"
	"github.com/cognicore/revaudit/pkg/revaudit/ingest"
	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/normalize"
)

// Environment variables that override file settings.
const (
	EnvChunkSize = "REVAUDIT_CHUNK_SIZE"
	EnvWorkers   = "REVAUDIT_WORKERS"
	EnvParallel  = "REVAUDIT_PARALLEL"
	EnvThreshold = "REVAUDIT_THRESHOLD"
	EnvLogLevel  = "REVAUDIT_LOG_LEVEL"
)

// Config is the full pipeline configuration.
type Config struct {
	Pipeline  Pipeline     `yaml:"pipeline"`
	Audit     audit.Config `yaml:"audit"`
	Normalize Normalize    `yaml:"normalize"`
	Resources Resources    `yaml:"resources"`
	Logging   Logging      `yaml:"logging"`
}

// Pipeline controls chunking and parallelism.
type Pipeline struct {
	ChunkSize   int  `yaml:"chunk_size"`
	WorkerCount int  `yaml:"worker_count"` // 0 = NumCPU-1, at least 1
	UseParallel bool `yaml:"use_parallel"`
}

// Normalize mirrors normalize.Options in file form.
type Normalize struct {
	StripURLs            bool     `yaml:"strip_urls"`
	StripEmails          bool     `yaml:"strip_emails"`
	StripPhoneNumbers    bool     `yaml:"strip_phone_numbers"`
	StripMarkup          bool     `yaml:"strip_markup"`
	StripMentions        bool     `yaml:"strip_mentions"`
	StripHashtags        bool     `yaml:"strip_hashtags"`
	ExpandContractions   bool     `yaml:"expand_contractions"`
	EmojiPolicy          string   `yaml:"emoji_policy"`
	NormalizeUnicodeForm bool     `yaml:"normalize_unicode_form"`
	ApplyStopwordRemoval bool     `yaml:"apply_stopword_removal"`
	ApplyLemmatization   bool     `yaml:"apply_lemmatization"`
	ApplyStemming        bool     `yaml:"apply_stemming"`
	MinTokenLength       int      `yaml:"min_token_length"`
	MaxTokenLength       int      `yaml:"max_token_length"`
	DropSingleCharTokens bool     `yaml:"drop_single_character_tokens"`
	AlphabeticOnly       bool     `yaml:"alphabetic_only"`
	CustomStopwords      []string `yaml:"custom_stopwords"`
	Language             string   `yaml:"language"`
}

// Resources points at optional replacement word lists.
type Resources struct {
	Stoplist     string `yaml:"stoplist"`
	Contractions string `yaml:"contractions"`
}

// Logging configures the process logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	n := normalize.DefaultOptions()
	return Config{
		Pipeline: Pipeline{
			ChunkSize:   ingest.DefaultChunkSize,
			WorkerCount: 0,
			UseParallel: true,
		},
		Audit: audit.DefaultConfig(),
		Normalize: Normalize{
			StripURLs:            n.StripURLs,
			StripEmails:          n.StripEmails,
			StripPhoneNumbers:    n.StripPhoneNumbers,
			StripMarkup:          n.StripMarkup,
			StripMentions:        n.StripMentions,
			StripHashtags:        n.StripHashtags,
			ExpandContractions:   n.ExpandContractions,
			EmojiPolicy:          string(n.Emoji),
			NormalizeUnicodeForm: n.NormalizeUnicode,
			ApplyStopwordRemoval: n.RemoveStopwords,
			ApplyLemmatization:   n.Lemmatize,
			ApplyStemming:        n.Stem,
			MinTokenLength:       n.MinTokenLength,
			MaxTokenLength:       n.MaxTokenLength,
			DropSingleCharTokens: n.DropSingleChars,
			AlphabeticOnly:       n.AlphabeticOnly,
			Language:             "english",
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads a YAML file over the defaults; keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// LoadEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped;
// with no paths, ".env" is tried.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := gotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from environment variables looked up with
// lookup (usually os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvChunkSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", internalerr.ErrInvalidConfig, EnvChunkSize, v)
		}
		c.Pipeline.ChunkSize = n
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", internalerr.ErrInvalidConfig, EnvWorkers, v)
		}
		c.Pipeline.WorkerCount = n
	}
	if v, ok := lookup(EnvParallel); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", internalerr.ErrInvalidConfig, EnvParallel, v)
		}
		c.Pipeline.UseParallel = b
	}
	if v, ok := lookup(EnvThreshold); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", internalerr.ErrInvalidConfig, EnvThreshold, v)
		}
		c.Audit.PolarityThreshold = f
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Logging.Level = strings.TrimSpace(v)
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Pipeline.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be at least 1, got %d", internalerr.ErrInvalidConfig, c.Pipeline.ChunkSize)
	}
	if c.Pipeline.WorkerCount < 0 {
		return fmt.Errorf("%w: worker_count must not be negative", internalerr.ErrInvalidConfig)
	}
	if err := c.Audit.Validate(); err != nil {
		return err
	}
	return c.NormalizeOptions().Validate()
}

// NormalizeOptions converts the normalize section.
func (c Config) NormalizeOptions() normalize.Options {
	n := c.Normalize
	return normalize.Options{
		StripURLs:          n.StripURLs,
		StripEmails:        n.StripEmails,
		StripPhoneNumbers:  n.StripPhoneNumbers,
		StripMarkup:        n.StripMarkup,
		StripMentions:      n.StripMentions,
		StripHashtags:      n.StripHashtags,
		ExpandContractions: n.ExpandContractions,
		Emoji:              normalize.ParseEmojiPolicy(n.EmojiPolicy),
		NormalizeUnicode:   n.NormalizeUnicodeForm,
		RemoveStopwords:    n.ApplyStopwordRemoval,
		CustomStopwords:    n.CustomStopwords,
		Lemmatize:          n.ApplyLemmatization,
		Stem:               n.ApplyStemming,
		MinTokenLength:     n.MinTokenLength,
		MaxTokenLength:     n.MaxTokenLength,
		DropSingleChars:    n.DropSingleCharTokens,
		AlphabeticOnly:     n.AlphabeticOnly,
	}
}

// CoordinatorOptions converts the pipeline section.
func (c Config) CoordinatorOptions() ingest.Options {
	workers := c.Pipeline.WorkerCount
	if workers <= 0 {
		workers = ingest.DefaultWorkers()
	}
	return ingest.Options{
		ChunkSize: c.Pipeline.ChunkSize,
		Workers:   workers,
		Parallel:  c.Pipeline.UseParallel,
	}
}
