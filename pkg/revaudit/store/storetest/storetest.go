// Package storetest holds behavior tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
	"github.com/cognicore/revaudit/pkg/revaudit/store"
)

// Run exercises st against the store.Store contract. open must return an
// empty store; Run closes it.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("RunRoundTrip", func(t *testing.T) { testRunRoundTrip(t, open(t)) })
	t.Run("LatestRun", func(t *testing.T) { testLatestRun(t, open(t)) })
	t.Run("RecordsAndSuspects", func(t *testing.T) { testRecordsAndSuspects(t, open(t)) })
	t.Run("Validation", func(t *testing.T) { testValidation(t, open(t)) })
}

// SampleRun returns a run with every field set.
func SampleRun(id string, started time.Time) store.Run {
	return store.Run{
		ID:        id,
		StartedAt: started,
		ChunkSize: 500,
		Workers:   3,
		Parallel:  true,
		Threshold: 0.3,
		Stats: store.RunStats{
			RecordsProcessed: 9,
			RecordsFaulted:   1,
			SuspectsDetected: 3,
			ChunksProcessed:  2,
			ChunksFailed:     0,
			WallTime:         1500 * time.Millisecond,
		},
	}
}

// SampleRecord returns an enriched record at pos.
func SampleRecord(pos int, suspect bool, confidence float64) record.EnrichedRecord {
	r := record.EnrichedRecord{
		Position:        pos,
		RawRecord:       record.RawRecord{Title: "Title", Content: "Body text", Label: record.Positive},
		CombinedText:    "Title Body text",
		ProcessedText:   "title body text",
		ProcessedLength: 15,
	}
	r.TextLength = 15
	r.WordCount = 3
	r.Polarity = -confidence
	r.Subjectivity = 0.4
	r.IsSuspect = suspect
	r.Confidence = confidence
	r.SuggestedLabel = record.Negative
	r.NegativeKeywords = 2
	if suspect {
		r.Reason = "2 negative keywords"
	}
	return r
}

func testRunRoundTrip(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := SampleRun("run-1", started)
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, found, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !found {
		t.Fatal("Run should be found")
	}
	if got.ID != run.ID || !got.StartedAt.Equal(started) || got.ChunkSize != 500 || got.Workers != 3 ||
		!got.Parallel || got.Threshold != 0.3 {
		t.Errorf("Run settings mismatch: got %+v", got)
	}
	if got.Stats != run.Stats {
		t.Errorf("Run stats mismatch: got %+v, want %+v", got.Stats, run.Stats)
	}

	// update in place keeps records
	if err := st.SaveRecords(ctx, "run-1", []record.EnrichedRecord{SampleRecord(0, false, 0.1)}); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	run.Stats.RecordsProcessed = 10
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun update: %v", err)
	}
	got, _, _ = st.GetRun(ctx, "run-1")
	if got.Stats.RecordsProcessed != 10 {
		t.Errorf("Expected updated stats, got %d", got.Stats.RecordsProcessed)
	}
	if n, _ := st.CountRecords(ctx, "run-1"); n != 1 {
		t.Errorf("Updating a run should keep its records, got %d", n)
	}

	if _, found, err := st.GetRun(ctx, "missing"); err != nil || found {
		t.Errorf("Missing run: expected (false, nil), got (%v, %v)", found, err)
	}
}

func testLatestRun(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	if _, found, err := st.LatestRun(ctx); err != nil || found {
		t.Errorf("Empty store: expected no latest run, got (%v, %v)", found, err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "c", "b"} {
		if err := st.SaveRun(ctx, SampleRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	latest, found, err := st.LatestRun(ctx)
	if err != nil || !found {
		t.Fatalf("LatestRun: (%v, %v)", found, err)
	}
	if latest.ID != "b" {
		t.Errorf("Expected latest run b, got %s", latest.ID)
	}
}

func testRecordsAndSuspects(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	if err := st.SaveRun(ctx, SampleRun("run-1", time.Now())); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	records := make([]record.EnrichedRecord, 0, 450)
	for i := 0; i < 450; i++ {
		records = append(records, SampleRecord(i, i%100 == 0, float64(i%7)/10))
	}
	if err := st.SaveRecords(ctx, "run-1", records); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	n, err := st.CountRecords(ctx, "run-1")
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if n != 450 {
		t.Errorf("Expected 450 records, got %d", n)
	}

	// saving the same positions again replaces them
	if err := st.SaveRecords(ctx, "run-1", records[:10]); err != nil {
		t.Fatalf("SaveRecords again: %v", err)
	}
	if n, _ := st.CountRecords(ctx, "run-1"); n != 450 {
		t.Errorf("Re-saving should not duplicate, got %d", n)
	}

	// suspects at 0,100,200,300,400 with confidence (i%7)/10: 0, .2, .4, .6, .1
	suspects, err := st.ListSuspects(ctx, "run-1", 0)
	if err != nil {
		t.Fatalf("ListSuspects: %v", err)
	}
	expected := []int{300, 200, 100, 400, 0}
	if len(suspects) != len(expected) {
		t.Fatalf("Expected %d suspects, got %d", len(expected), len(suspects))
	}
	for i, pos := range expected {
		if suspects[i].Position != pos {
			t.Errorf("Suspect %d: expected position %d, got %d", i, pos, suspects[i].Position)
		}
	}

	first := suspects[0]
	want := records[300]
	if first.Title != want.Title || first.ProcessedText != want.ProcessedText || first.Reason != want.Reason ||
		first.Label != want.Label || first.SuggestedLabel != want.SuggestedLabel || first.FeatureSet != want.FeatureSet ||
		first.NegativeKeywords != 2 || !first.IsSuspect {
		t.Errorf("Suspect round trip mismatch:\n got %+v\nwant %+v", first, want)
	}

	limited, _ := st.ListSuspects(ctx, "run-1", 2)
	if len(limited) != 2 || limited[0].Position != 300 {
		t.Errorf("Expected top 2 suspects starting at 300, got %d", len(limited))
	}

	if n, _ := st.CountRecords(ctx, "other"); n != 0 {
		t.Errorf("Unknown run should have 0 records, got %d", n)
	}
}

func testValidation(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	if err := st.SaveRun(ctx, store.Run{}); err == nil {
		t.Error("SaveRun should reject an empty id")
	}
	err := st.SaveRecords(ctx, "unknown", []record.EnrichedRecord{SampleRecord(0, false, 0)})
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("SaveRecords for an unknown run: expected ErrNotFound, got %v", err)
	}
}
