package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/cognicore/revaudit/internal/logging"
	"github.com/cognicore/revaudit/internal/source"
	"github.com/cognicore/revaudit/pkg/revaudit"
	"github.com/cognicore/revaudit/pkg/revaudit/config"
	"github.com/cognicore/revaudit/pkg/revaudit/nlp"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
	"github.com/cognicore/revaudit/pkg/revaudit/report"
	"github.com/cognicore/revaudit/pkg/revaudit/store/sqlite"
)

func main() {
	var (
		input      = flag.String("input", "", "Input JSONL or CSV file (required)")
		configPath = flag.String("config", "", "YAML configuration file (optional)")
		envFile    = flag.String("env", ".env", "Environment file loaded before REVAUDIT_* overrides")
		dbPath     = flag.String("db", "", "SQLite database for run history (optional)")
		topTokens  = flag.Int("top", 10, "Most frequent processed tokens to show per label")
		asJSON     = flag.Bool("json", false, "Print the summary as JSON")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loader := config.Loader{ConfigPath: *configPath, EnvFiles: []string{*envFile}}
	cfg, err := loader.Config()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.InitLogger(cfg.Logging.Level)
	if err != nil {
		logger.Warn("[Main] falling back to info logging", slog.String("error", err.Error()))
	}

	engine, cleanup, err := buildEngine(ctx, cfg, nil, *dbPath, logger)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer cleanup()

	records, err := source.Load(*input)
	if err != nil {
		logger.Error("[Main] load records", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("[Main] records loaded", slog.String("input", *input), slog.Int("records", len(records)))

	res, err := engine.Run(ctx, records)
	if err != nil {
		logger.Error("[Main] run failed", slog.String("error", err.Error()))
		if res.Records == nil {
			os.Exit(1)
		}
	}

	if err := printResult(os.Stdout, res, *topTokens, *asJSON); err != nil {
		logger.Error("[Main] print summary", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildEngine wires the pipeline for cfg. A nil n loads the default NLP
// engine; logger receives the coordinator's progress and per-record faults.
func buildEngine(ctx context.Context, cfg config.Config, n nlp.NLP, dbPath string, logger *slog.Logger) (*revaudit.Engine, func(), error) {
	components, err := config.Build(cfg, n)
	if err != nil {
		return nil, nil, fmt.Errorf("build components: %w", err)
	}

	opts := revaudit.Options{
		Processor:   components.Processor,
		Coordinator: components.Coordinator,
		Threshold:   cfg.Audit.PolarityThreshold,
		Logger:      logger,
	}
	if dbPath != "" {
		st, err := sqlite.OpenSQLite(ctx, dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		opts.Store = st
	}

	engine, err := revaudit.New(opts)
	if err != nil {
		if opts.Store != nil {
			opts.Store.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		engine.Close()
	}
	return engine, cleanup, nil
}

func printResult(w io.Writer, res revaudit.RunResult, top int, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(struct {
			RunID   string         `json:"run_id"`
			Summary report.Summary `json:"summary"`
		}{res.RunID, res.Summary}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	fmt.Fprintf(w, "Run %s\n\n", res.RunID)
	if err := res.Summary.Write(w); err != nil {
		return err
	}
	for _, f := range res.Stats.FailedChunks {
		fmt.Fprintf(w, "  failed chunk %d: records [%d, %d): %v\n", f.Chunk, f.Start, f.End, f.Err)
	}

	if top > 0 {
		for _, label := range []record.Label{record.Positive, record.Negative} {
			tokens := report.TopTokens(res.Records, label, top)
			if len(tokens) == 0 {
				continue
			}
			fmt.Fprintf(w, "\nTop %s tokens:\n", label)
			for _, tc := range tokens {
				fmt.Fprintf(w, "  %-20s %d\n", tc.Token, tc.Count)
			}
		}
	}
	return nil
}
