package ingest

import (
	"fmt"
	"time"

	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// Chunk is a contiguous view of the input handled by one worker. It aliases
// the caller's slice and is only read.
type Chunk struct {
	Index   int
	Start   int // position of Records[0] in the input stream
	Records []record.RawRecord
}

// End returns the position one past the chunk's last record.
func (c Chunk) End() int {
	return c.Start + len(c.Records)
}

// Partition splits records into chunks of size records; the last chunk may
// be smaller. Chunks share the input's backing array.
func Partition(records []record.RawRecord, size int) []Chunk {
	if size < 1 {
		size = 1
	}
	chunks := make([]Chunk, 0, NumChunks(len(records), size))
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Start:   start,
			Records: records[start:end:end],
		})
	}
	return chunks
}

// NumChunks returns how many chunks Partition derives for n records.
func NumChunks(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size < 1 {
		size = 1
	}
	return (n + size - 1) / size
}

// RecordFault describes a record dropped from its chunk's output.
type RecordFault struct {
	Chunk    int
	Position int
	Err      error
}

func (f RecordFault) Error() string {
	return fmt.Sprintf("chunk %d record %d: %v", f.Chunk, f.Position, f.Err)
}

func (f RecordFault) Unwrap() error {
	return f.Err
}

// ChunkFault describes a chunk whose whole record range is missing from
// the output.
type ChunkFault struct {
	Chunk int
	Start int
	End   int
	Err   error
}

func (f ChunkFault) Error() string {
	return fmt.Sprintf("chunk %d [%d,%d): %v", f.Chunk, f.Start, f.End, f.Err)
}

func (f ChunkFault) Unwrap() error {
	return f.Err
}

// ChunkResult is the self-contained output of one worker for one chunk.
// It is never modified after the worker returns it.
type ChunkResult struct {
	Index    int
	Start    int
	Size     int
	Records  []record.EnrichedRecord
	Faults   []RecordFault
	Suspects int
	Elapsed  time.Duration
	Err      error // non-nil when the chunk failed as a whole
}
