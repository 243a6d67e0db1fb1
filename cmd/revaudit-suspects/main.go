package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/cognicore/revaudit/pkg/revaudit"
	"github.com/cognicore/revaudit/pkg/revaudit/audit"
	"github.com/cognicore/revaudit/pkg/revaudit/store"
	"github.com/cognicore/revaudit/pkg/revaudit/store/sqlite"
)

func main() {
	var (
		dbPath = flag.String("db", "", "SQLite database written by revaudit (required)")
		runID  = flag.String("run", "", "Run ID (default: latest run)")
		top    = flag.Int("top", 20, "Number of suspects to list, 0 for all")
		asJSON = flag.Bool("json", false, "Print suggestions as JSON")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if err := listSuspects(ctx, os.Stdout, st, *runID, *top, *asJSON); err != nil {
		log.Fatalf("list suspects: %v", err)
	}
}

func listSuspects(ctx context.Context, w io.Writer, st store.Store, runID string, top int, asJSON bool) error {
	run, suggestions, err := revaudit.Suggestions(ctx, st, runID, top)
	if err != nil {
		return err
	}

	if asJSON {
		out, err := json.MarshalIndent(struct {
			RunID       string             `json:"run_id"`
			Suggestions []audit.Suggestion `json:"suggestions"`
		}{run.ID, suggestions}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal suggestions: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	fmt.Fprintf(w, "Run %s started %s: %d suspects in %d records\n\n",
		run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Stats.SuspectsDetected, run.Stats.RecordsProcessed)
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No suspect labels.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tLABEL\tSUGGESTED\tTIER\tCONFIDENCE\tREASON")
	for _, s := range suggestions {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%.3f\t%s\n", s.Position, s.Current, s.Suggested, s.Tier, s.Confidence, s.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, s := range suggestions {
		fmt.Fprintf(w, "[%d] %s\n", s.Position, s.Preview)
	}
	return nil
}
