// Package revaudit runs review records through the normalization, feature
// and label-audit pipeline, persists each run and summarizes it.
package revaudit

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/revaudit/pkg/revaudit/audit"
	"github.com/cognicore/revaudit/pkg/revaudit/ingest"
	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
	"github.com/cognicore/revaudit/pkg/revaudit/report"
	"github.com/cognicore/revaudit/pkg/revaudit/store"
)

// Engine is the pipeline facade
type Engine struct {
	store     store.Store
	coord     *ingest.Coordinator
	threshold float64
	logger    *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// Options configures an Engine
type Options struct {
	Store       store.Store // optional; runs are not persisted without one
	Processor   ingest.RecordProcessor
	Coordinator ingest.Options
	Threshold   float64 // recorded with each run
	Logger      *slog.Logger
}

// RunResult is the outcome of one Run.
type RunResult struct {
	RunID     string
	StartedAt time.Time
	Records   []record.EnrichedRecord
	Faults    []ingest.RecordFault
	Stats     ingest.AggregateStats
	Summary   report.Summary
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	copts := opts.Coordinator
	if copts.Logger == nil {
		copts.Logger = logger
	}
	coord, err := ingest.NewCoordinator(opts.Processor, copts)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:     opts.Store,
		coord:     coord,
		threshold: opts.Threshold,
		logger:    logger,
		entropy:   ulid.Monotonic(rand.Reader, 0),
		now:       time.Now,
	}, nil
}

// Close cleanly shuts down the engine and its store
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

func (e *Engine) newRunID(t time.Time) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), e.entropy).String()
}

// Run processes records, persists the run when a store is configured and
// returns the enriched records with their statistics. A store failure is
// returned together with the computed result.
func (e *Engine) Run(ctx context.Context, records []record.RawRecord) (RunResult, error) {
	started := e.now().UTC()
	res := RunResult{
		RunID:     e.newRunID(started),
		StartedAt: started,
	}

	out, err := e.coord.ProcessStream(ctx, records)
	if err != nil {
		return res, err
	}
	res.Records = out.Records
	res.Faults = out.Faults
	res.Stats = out.Stats
	res.Summary = report.Summarize(out.Records, out.Stats)

	if e.store == nil {
		return res, nil
	}

	opts := e.coord.Options()
	run := store.Run{
		ID:        res.RunID,
		StartedAt: started,
		ChunkSize: opts.ChunkSize,
		Workers:   opts.Workers,
		Parallel:  opts.Parallel,
		Threshold: e.threshold,
		Stats: store.RunStats{
			RecordsProcessed: out.Stats.RecordsProcessed,
			RecordsFaulted:   out.Stats.RecordsFaulted,
			SuspectsDetected: out.Stats.SuspectsDetected,
			ChunksProcessed:  out.Stats.ChunksProcessed,
			ChunksFailed:     out.Stats.ChunksFailed,
			WallTime:         out.Stats.WallTime,
		},
	}
	if err := e.store.SaveRun(ctx, run); err != nil {
		return res, fmt.Errorf("save run %s: %w", run.ID, err)
	}
	if err := e.store.SaveRecords(ctx, run.ID, out.Records); err != nil {
		return res, fmt.Errorf("save records of run %s: %w", run.ID, err)
	}

	e.logger.Info("[Engine] run saved",
		slog.String("run", run.ID),
		slog.Int("records", len(out.Records)),
		slog.Int("suspects", out.Stats.SuspectsDetected))
	return res, nil
}

// Suggestions returns label corrections for the topN most confident
// suspects of a stored run. An empty runID selects the latest run.
func (e *Engine) Suggestions(ctx context.Context, runID string, topN int) (store.Run, []audit.Suggestion, error) {
	if e.store == nil {
		return store.Run{}, nil, fmt.Errorf("suggestions: %w", internalerr.ErrStoreUnavailable)
	}
	return Suggestions(ctx, e.store, runID, topN)
}

// Suggestions is Engine.Suggestions over any store.
func Suggestions(ctx context.Context, st store.Store, runID string, topN int) (store.Run, []audit.Suggestion, error) {
	var (
		run   store.Run
		found bool
		err   error
	)
	if runID == "" {
		run, found, err = st.LatestRun(ctx)
	} else {
		run, found, err = st.GetRun(ctx, runID)
	}
	if err != nil {
		return store.Run{}, nil, err
	}
	if !found {
		return store.Run{}, nil, fmt.Errorf("run %q: %w", runID, internalerr.ErrNotFound)
	}

	suspects, err := st.ListSuspects(ctx, run.ID, topN)
	if err != nil {
		return run, nil, err
	}
	return run, audit.Suggest(suspects, topN), nil
}
