package store

import (
	"context"
	"time"

	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// Store persists pipeline runs and their enriched records.
type Store interface {
	Close() error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	LatestRun(ctx context.Context) (Run, bool, error)

	// Records, keyed by (run, position)
	SaveRecords(ctx context.Context, runID string, records []record.EnrichedRecord) error
	CountRecords(ctx context.Context, runID string) (int, error)
	ListSuspects(ctx context.Context, runID string, limit int) ([]record.EnrichedRecord, error)
}

// Run is one execution of the pipeline with the settings it used.
type Run struct {
	ID        string
	StartedAt time.Time
	ChunkSize int
	Workers   int
	Parallel  bool
	Threshold float64
	Stats     RunStats
}

// RunStats mirrors the aggregate counters of a run.
type RunStats struct {
	RecordsProcessed int
	RecordsFaulted   int
	SuspectsDetected int
	ChunksProcessed  int
	ChunksFailed     int
	WallTime         time.Duration
}
