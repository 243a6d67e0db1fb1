package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
	"github.com/cognicore/revaudit/pkg/revaudit/store"
)

// insertBatch bounds the rows per INSERT so the statement stays under the
// SQLite host-parameter limit.
const insertBatch = 200

var runColumns = []string{
	"id", "started_at", "chunk_size", "workers", "parallel", "threshold",
	"records_processed", "records_faulted", "suspects_detected",
	"chunks_processed", "chunks_failed", "wall_time_ms",
}

var recordColumns = []string{
	"run_id", "position", "title", "content", "label",
	"combined_text", "processed_text", "processed_length", "features",
	"is_suspect", "suspect_reason", "suggested_label", "confidence",
	"negative_keywords", "positive_keywords",
}

// runUpsert updates a run in place; REPLACE would delete it and cascade
// to its records.
var runUpsert = func() string {
	sets := make([]string, 0, len(runColumns)-1)
	for _, col := range runColumns[1:] {
		sets = append(sets, col+"=excluded."+col)
	}
	return "ON CONFLICT(id) DO UPDATE SET " + strings.Join(sets, ", ")
}()

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	chunk_size INTEGER NOT NULL,
	workers INTEGER NOT NULL,
	parallel INTEGER NOT NULL,
	threshold REAL NOT NULL,
	records_processed INTEGER DEFAULT 0,
	records_faulted INTEGER DEFAULT 0,
	suspects_detected INTEGER DEFAULT 0,
	chunks_processed INTEGER DEFAULT 0,
	chunks_failed INTEGER DEFAULT 0,
	wall_time_ms INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS records (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	title TEXT,
	content TEXT,
	label INTEGER NOT NULL,
	combined_text TEXT,
	processed_text TEXT,
	processed_length INTEGER,
	features TEXT,
	is_suspect INTEGER NOT NULL,
	suspect_reason TEXT,
	suggested_label INTEGER,
	confidence REAL,
	negative_keywords INTEGER,
	positive_keywords INTEGER,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_records_suspects ON records(run_id, is_suspect, confidence);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or updates a run
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: %w: empty id", internalerr.ErrInvalidInput)
	}

	query, args, err := sq.Insert("runs").
		Columns(runColumns...).
		Values(
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339Nano),
			r.ChunkSize,
			r.Workers,
			boolToInt(r.Parallel),
			r.Threshold,
			r.Stats.RecordsProcessed,
			r.Stats.RecordsFaulted,
			r.Stats.SuspectsDetected,
			r.Stats.ChunksProcessed,
			r.Stats.ChunksFailed,
			r.Stats.WallTime.Milliseconds(),
		).
		Suffix(runUpsert).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

// GetRun returns a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	return s.queryRun(ctx, sq.Select(runColumns...).From("runs").Where(sq.Eq{"id": id}))
}

// LatestRun returns the most recently started run. Run IDs are ULIDs, so
// ordering by id breaks ties between runs started in the same instant.
func (s *sqliteStore) LatestRun(ctx context.Context) (store.Run, bool, error) {
	return s.queryRun(ctx, sq.Select(runColumns...).From("runs").
		OrderBy("started_at DESC", "id DESC").
		Limit(1))
}

func (s *sqliteStore) queryRun(ctx context.Context, b sq.SelectBuilder) (store.Run, bool, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return store.Run{}, false, fmt.Errorf("build run query: %w", err)
	}

	var (
		r         store.Run
		startedAt string
		parallel  int
		wallMs    int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&r.ID,
		&startedAt,
		&r.ChunkSize,
		&r.Workers,
		&parallel,
		&r.Threshold,
		&r.Stats.RecordsProcessed,
		&r.Stats.RecordsFaulted,
		&r.Stats.SuspectsDetected,
		&r.Stats.ChunksProcessed,
		&r.Stats.ChunksFailed,
		&wallMs,
	)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}

	r.Parallel = parallel != 0
	r.Stats.WallTime = time.Duration(wallMs) * time.Millisecond
	if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		r.StartedAt = t
	}
	return r, true, nil
}

// SaveRecords writes records in one transaction. Existing rows with the
// same (run, position) are replaced.
func (s *sqliteStore) SaveRecords(ctx context.Context, runID string, records []record.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", runID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("save records: run %s: %w", runID, internalerr.ErrNotFound)
	}

	for start := 0; start < len(records); start += insertBatch {
		end := start + insertBatch
		if end > len(records) {
			end = len(records)
		}

		b := sq.Replace("records").Columns(recordColumns...)
		for _, r := range records[start:end] {
			featuresJSON, err := json.Marshal(r.FeatureSet)
			if err != nil {
				return fmt.Errorf("encode features of record %d: %w", r.Position, err)
			}
			b = b.Values(
				runID,
				r.Position,
				r.Title,
				r.Content,
				int(r.Label),
				r.CombinedText,
				r.ProcessedText,
				r.ProcessedLength,
				string(featuresJSON),
				boolToInt(r.IsSuspect),
				r.Reason,
				int(r.SuggestedLabel),
				r.Confidence,
				r.NegativeKeywords,
				r.PositiveKeywords,
			)
		}

		query, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("build record insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("save records of run %s: %w", runID, err)
		}
	}

	return tx.Commit()
}

// CountRecords returns how many records are stored for a run
func (s *sqliteStore) CountRecords(ctx context.Context, runID string) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("records").Where(sq.Eq{"run_id": runID}).ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListSuspects returns the suspect records of a run, most confident first.
// limit <= 0 returns all of them.
func (s *sqliteStore) ListSuspects(ctx context.Context, runID string, limit int) ([]record.EnrichedRecord, error) {
	b := sq.Select(recordColumns[1:]...).
		From("records").
		Where(sq.Eq{"run_id": runID, "is_suspect": 1}).
		OrderBy("confidence DESC", "position ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.EnrichedRecord
	for rows.Next() {
		var (
			r            record.EnrichedRecord
			label        int
			suggested    int
			suspect      int
			featuresJSON string
		)
		if err := rows.Scan(
			&r.Position,
			&r.Title,
			&r.Content,
			&label,
			&r.CombinedText,
			&r.ProcessedText,
			&r.ProcessedLength,
			&featuresJSON,
			&suspect,
			&r.Reason,
			&suggested,
			&r.Confidence,
			&r.NegativeKeywords,
			&r.PositiveKeywords,
		); err != nil {
			return nil, err
		}
		if featuresJSON != "" {
			if err := json.Unmarshal([]byte(featuresJSON), &r.FeatureSet); err != nil {
				return nil, fmt.Errorf("decode features of record %d: %w", r.Position, err)
			}
		}
		r.Label = record.Label(label)
		r.SuggestedLabel = record.Label(suggested)
		r.IsSuspect = suspect != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
