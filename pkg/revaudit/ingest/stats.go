package ingest

import "time"

// AggregateStats summarizes a run. It is produced by Fold once every chunk
// has completed.
type AggregateStats struct {
	RecordsProcessed int           `json:"records_processed"`
	RecordsFaulted   int           `json:"records_faulted"` // includes records of failed chunks
	SuspectsDetected int           `json:"suspects_detected"`
	ChunksProcessed  int           `json:"chunks_processed"`
	ChunksFailed     int           `json:"chunks_failed"`
	FailedChunks     []ChunkFault  `json:"-"`
	ProcessingTime   time.Duration `json:"processing_time"` // summed over chunks
	WallTime         time.Duration `json:"wall_time"`
}

// Fold reduces per-chunk results into AggregateStats. It has no side
// effects and does not depend on result order for its counters.
func Fold(results []ChunkResult) AggregateStats {
	var s AggregateStats
	for _, r := range results {
		s.ChunksProcessed++
		s.ProcessingTime += r.Elapsed

		if r.Err != nil {
			s.ChunksFailed++
			s.RecordsFaulted += r.Size
			s.FailedChunks = append(s.FailedChunks, ChunkFault{
				Chunk: r.Index,
				Start: r.Start,
				End:   r.Start + r.Size,
				Err:   r.Err,
			})
			continue
		}

		s.RecordsProcessed += len(r.Records)
		s.RecordsFaulted += len(r.Faults)
		s.SuspectsDetected += r.Suspects
	}
	return s
}
