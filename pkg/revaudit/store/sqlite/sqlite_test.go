package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/revaudit/pkg/revaudit/record"
	"github.com/cognicore/revaudit/pkg/revaudit/store"
	"github.com/cognicore/revaudit/pkg/revaudit/store/storetest"
)

func openTemp(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "revaudit.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return st
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, openTemp)
}

// TestSQLitePersistsAcrossReopen checks data survives closing the database.
func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "revaudit.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	run := storetest.SampleRun("01JRUN", time.Date(2026, 5, 2, 8, 30, 0, 123456789, time.UTC))
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	records := []record.EnrichedRecord{
		storetest.SampleRecord(0, true, 0.8),
		storetest.SampleRecord(1, false, 0.1),
	}
	if err := st.SaveRecords(ctx, run.ID, records); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer st.Close()

	got, found, err := st.GetRun(ctx, run.ID)
	if err != nil || !found {
		t.Fatalf("GetRun after reopen: (%v, %v)", found, err)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("Expected start time %v, got %v", run.StartedAt, got.StartedAt)
	}

	n, err := st.CountRecords(ctx, run.ID)
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 records after reopen, got %d", n)
	}
}

func TestOpenSQLiteBadPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	if err == nil {
		t.Error("Expected error opening a database in a missing directory")
	}
}
