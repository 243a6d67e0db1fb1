package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// DefaultChunkSize is the number of records per unit of work.
const DefaultChunkSize = 10000

// Options configures a Coordinator.
type Options struct {
	ChunkSize int
	Workers   int // <= 0 means DefaultWorkers()
	Parallel  bool
	Logger    *slog.Logger
}

// DefaultOptions returns parallel processing with DefaultChunkSize and
// DefaultWorkers.
func DefaultOptions() Options {
	return Options{
		ChunkSize: DefaultChunkSize,
		Workers:   DefaultWorkers(),
		Parallel:  true,
	}
}

// DefaultWorkers leaves one CPU for the caller, with a minimum of one.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// Result is the merged output of a stream.
type Result struct {
	Records []record.EnrichedRecord
	Faults  []RecordFault
	Stats   AggregateStats
}

// Coordinator partitions a record stream into chunks, runs them through a
// RecordProcessor and merges the results in chunk order.
type Coordinator struct {
	proc   RecordProcessor
	opts   Options
	logger *slog.Logger
}

// NewCoordinator validates opts and returns a Coordinator.
func NewCoordinator(proc RecordProcessor, opts Options) (*Coordinator, error) {
	if proc == nil {
		return nil, fmt.Errorf("%w: coordinator requires a record processor", internalerr.ErrInvalidConfig)
	}
	if opts.ChunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size must be at least 1, got %d", internalerr.ErrInvalidConfig, opts.ChunkSize)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{proc: proc, opts: opts, logger: logger}, nil
}

// Options returns the effective options.
func (c *Coordinator) Options() Options {
	return c.opts
}

// ProcessStream enriches records. Output order matches input order whether
// or not chunks run in parallel. Per-record failures drop the record and
// are reported in Result.Faults; failed chunks are reported in
// Stats.FailedChunks. The only error returned is cancellation of ctx
// before every chunk was dispatched.
func (c *Coordinator) ProcessStream(ctx context.Context, records []record.RawRecord) (Result, error) {
	start := time.Now()
	chunks := Partition(records, c.opts.ChunkSize)
	results := make([]ChunkResult, len(chunks))

	parallel := c.opts.Parallel && len(chunks) > 1
	c.logger.Debug("[Coordinator] starting",
		slog.Int("records", len(records)),
		slog.Int("chunks", len(chunks)),
		slog.Bool("parallel", parallel),
		slog.Int("workers", c.opts.Workers))

	if parallel {
		var g errgroup.Group
		g.SetLimit(c.opts.Workers)
		for i := range chunks {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				results[i] = c.processChunk(chunks[i])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range chunks {
			if ctx.Err() != nil {
				break
			}
			results[i] = c.processChunk(chunks[i])
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("process stream: %w", err)
	}

	out := Result{
		Records: make([]record.EnrichedRecord, 0, len(records)),
		Stats:   Fold(results),
	}
	for _, r := range results {
		out.Records = append(out.Records, r.Records...)
		out.Faults = append(out.Faults, r.Faults...)
	}
	out.Stats.WallTime = time.Since(start)

	for _, f := range out.Stats.FailedChunks {
		c.logger.Error("[Coordinator] chunk failed",
			slog.Int("chunk", f.Chunk),
			slog.Int("start", f.Start),
			slog.Int("end", f.End),
			slog.String("error", f.Err.Error()))
	}
	c.logger.Info("[Coordinator] stream complete",
		slog.Int("records", out.Stats.RecordsProcessed),
		slog.Int("faulted", out.Stats.RecordsFaulted),
		slog.Int("suspects", out.Stats.SuspectsDetected),
		slog.Int("chunks", out.Stats.ChunksProcessed),
		slog.Duration("elapsed", out.Stats.WallTime))

	return out, nil
}

// processChunk runs every record of chunk in order. It never panics: a
// panic outside record processing, or a fatal record error, fails the
// whole chunk.
func (c *Coordinator) processChunk(chunk Chunk) (res ChunkResult) {
	start := time.Now()
	res = ChunkResult{Index: chunk.Index, Start: chunk.Start, Size: len(chunk.Records)}

	defer func() {
		if r := recover(); r != nil {
			res.fail(fmt.Errorf("%w: chunk %d: panic: %v", internalerr.ErrFatal, chunk.Index, r))
		}
		res.Elapsed = time.Since(start)
		c.logger.Debug("[Coordinator] chunk done",
			slog.Int("chunk", res.Index),
			slog.Int("records", len(res.Records)),
			slog.Int("faults", len(res.Faults)),
			slog.Duration("elapsed", res.Elapsed))
	}()

	res.Records = make([]record.EnrichedRecord, 0, len(chunk.Records))
	for i, raw := range chunk.Records {
		pos := chunk.Start + i
		rec, err := c.processRecord(pos, raw)
		if err != nil {
			if errors.Is(err, internalerr.ErrFatal) {
				res.fail(fmt.Errorf("chunk %d: %w", chunk.Index, err))
				return res
			}
			res.Faults = append(res.Faults, RecordFault{Chunk: chunk.Index, Position: pos, Err: err})
			c.logger.Warn("[Coordinator] record failed",
				slog.Int("chunk", chunk.Index),
				slog.Int("position", pos),
				slog.String("error", err.Error()))
			continue
		}
		if rec.IsSuspect {
			res.Suspects++
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func (c *Coordinator) processRecord(pos int, raw record.RawRecord) (rec record.EnrichedRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("record %d: panic: %v", pos, r)
		}
	}()
	return c.proc.Process(pos, raw)
}

// fail discards partial output so a failed chunk contributes no records.
func (r *ChunkResult) fail(err error) {
	r.Records = nil
	r.Faults = nil
	r.Suspects = 0
	r.Err = err
}
