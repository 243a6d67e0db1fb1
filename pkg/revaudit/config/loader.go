package config

import (
	"fmt"
	"os"

	"github.com/cognicore/revaudit/pkg/revaudit/audit"
	"github.com/cognicore/revaudit/pkg/revaudit/features"
	"github.com/cognicore/revaudit/pkg/revaudit/ingest"
	"github.com/cognicore/revaudit/pkg/revaudit/lexicon"
	"github.com/cognicore/revaudit/pkg/revaudit/nlp"
	"github.com/cognicore/revaudit/pkg/revaudit/normalize"
	"github.com/cognicore/revaudit/pkg/revaudit/stoplist"
)

// Loader resolves the configuration (defaults, YAML file, .env files,
// environment) and constructs components
type Loader struct {
	ConfigPath string                      // optional YAML file
	EnvFiles   []string                    // nil means ".env"
	Lookup     func(string) (string, bool) // nil means os.LookupEnv
}

// Components holds everything needed to run the pipeline
type Components struct {
	Config      Config
	NLP         nlp.NLP
	Normalizer  *normalize.Normalizer
	Extractor   *features.Extractor
	Auditor     *audit.Auditor
	Processor   *ingest.Processor
	Coordinator ingest.Options
}

// Config returns the resolved and validated configuration.
func (l *Loader) Config() (Config, error) {
	cfg := Default()
	if l.ConfigPath != "" {
		loaded, err := Load(l.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if err := LoadEnv(l.EnvFiles...); err != nil {
		return cfg, err
	}
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Build constructs components from cfg. A nil n loads the default NLP
// engine with the configured contraction table.
func Build(cfg Config, n nlp.NLP) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Stop words
	var stops *stoplist.Manager
	var err error
	if cfg.Resources.Stoplist != "" {
		stops, err = stoplist.LoadFromYAML(cfg.Resources.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
	} else {
		stops, err = stoplist.ForLanguage(cfg.Normalize.Language)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
	}

	// NLP engine
	if n == nil {
		contractions := lexicon.English()
		if cfg.Resources.Contractions != "" {
			contractions, err = lexicon.LoadFromYAML(cfg.Resources.Contractions)
			if err != nil {
				return nil, fmt.Errorf("load contractions: %w", err)
			}
		}
		engine, err := nlp.NewEngine(nlp.EngineOptions{
			Language:     cfg.Normalize.Language,
			Contractions: contractions,
		})
		if err != nil {
			return nil, fmt.Errorf("load nlp engine: %w", err)
		}
		n = engine
	}

	normalizer, err := normalize.New(n, stops, cfg.NormalizeOptions())
	if err != nil {
		return nil, fmt.Errorf("build normalizer: %w", err)
	}
	auditor, err := audit.New(n, cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("build auditor: %w", err)
	}
	extractor := features.New(n)

	return &Components{
		Config:      cfg,
		NLP:         n,
		Normalizer:  normalizer,
		Extractor:   extractor,
		Auditor:     auditor,
		Processor:   ingest.NewProcessor(normalizer, extractor, auditor),
		Coordinator: cfg.CoordinatorOptions(),
	}, nil
}
