// Package report summarizes an enriched dataset: label balance, label
// quality, text compression and throughput.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cognicore/revaudit/pkg/revaudit/ingest"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// Summary describes one pipeline run.
type Summary struct {
	TotalRecords int `json:"total_records"`
	Positive     int `json:"positive"`
	Negative     int `json:"negative"`

	Suspects     int     `json:"suspects"`
	SuspectRatio float64 `json:"suspect_ratio"`

	AvgTextLength      float64 `json:"avg_text_length"`
	AvgProcessedLength float64 `json:"avg_processed_length"`
	CompressionRatio   float64 `json:"compression_ratio"`
	AvgPolarity        float64 `json:"avg_polarity"`
	AvgSubjectivity    float64 `json:"avg_subjectivity"`

	RecordsFaulted  int     `json:"records_faulted"`
	ChunksProcessed int     `json:"chunks_processed"`
	ChunksFailed    int     `json:"chunks_failed"`
	Throughput      float64 `json:"throughput"` // records per second
}

// Summarize computes a Summary. Every average and ratio is 0 when there is
// nothing to divide by.
func Summarize(records []record.EnrichedRecord, stats ingest.AggregateStats) Summary {
	s := Summary{
		TotalRecords:    len(records),
		RecordsFaulted:  stats.RecordsFaulted,
		ChunksProcessed: stats.ChunksProcessed,
		ChunksFailed:    stats.ChunksFailed,
	}

	var textLen, procLen int
	var polarity, subjectivity float64
	for _, r := range records {
		switch r.Label {
		case record.Positive:
			s.Positive++
		case record.Negative:
			s.Negative++
		}
		if r.IsSuspect {
			s.Suspects++
		}
		textLen += r.TextLength
		procLen += r.ProcessedLength
		polarity += r.Polarity
		subjectivity += r.Subjectivity
	}

	if n := float64(len(records)); n > 0 {
		s.SuspectRatio = float64(s.Suspects) / n
		s.AvgTextLength = float64(textLen) / n
		s.AvgProcessedLength = float64(procLen) / n
		s.AvgPolarity = polarity / n
		s.AvgSubjectivity = subjectivity / n
	}
	if s.AvgTextLength > 0 {
		s.CompressionRatio = 1 - s.AvgProcessedLength/s.AvgTextLength
	}
	if secs := stats.WallTime.Seconds(); secs > 0 {
		s.Throughput = float64(stats.RecordsProcessed) / secs
	}
	return s
}

// TokenCount is the number of records of one class containing a token.
type TokenCount struct {
	Token string
	Count int
}

// TopTokens returns the limit most common processed tokens among records
// with the given label, counting each token once per record. Ties are
// broken alphabetically.
func TopTokens(records []record.EnrichedRecord, label record.Label, limit int) []TokenCount {
	df := make(map[string]int)
	for _, r := range records {
		if r.Label != label {
			continue
		}
		seen := make(map[string]struct{})
		for _, tok := range strings.Fields(r.ProcessedText) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	out := make([]TokenCount, 0, len(df))
	for tok, n := range df {
		out = append(out, TokenCount{Token: tok, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Write prints the summary as an aligned two-column table.
func (s Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		name  string
		value string
	}{
		{"records", fmt.Sprintf("%d (%d positive, %d negative)", s.TotalRecords, s.Positive, s.Negative)},
		{"suspect labels", fmt.Sprintf("%d (%.1f%%)", s.Suspects, s.SuspectRatio*100)},
		{"avg text length", fmt.Sprintf("%.1f", s.AvgTextLength)},
		{"avg processed length", fmt.Sprintf("%.1f", s.AvgProcessedLength)},
		{"compression", fmt.Sprintf("%.1f%%", s.CompressionRatio*100)},
		{"avg polarity", fmt.Sprintf("%.3f", s.AvgPolarity)},
		{"faulted records", fmt.Sprintf("%d", s.RecordsFaulted)},
		{"chunks", fmt.Sprintf("%d (%d failed)", s.ChunksProcessed, s.ChunksFailed)},
		{"throughput", fmt.Sprintf("%.0f records/s", s.Throughput)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", row.name, row.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}
