package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "reviews.jsonl", `{"title":"Great","content":"Works well","label":1}

{"title":"Bad","content":"Broke","label":0}
not json at all
{"title":"No label","content":"x"}
{"title":"Odd label","content":"x","label":7}
{"title":"","content":"Only content","label":1}
`)

	records, err := LoadJSONL(path)
	if err != nil {
		t.Fatalf("LoadJSONL: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 valid records, got %d", len(records))
	}
	if records[0].Title != "Great" || records[0].Label != record.Positive {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
	if records[1].Content != "Broke" || records[1].Label != record.Negative {
		t.Errorf("Unexpected second record: %+v", records[1])
	}
	if records[2].Content != "Only content" {
		t.Errorf("Expected input order to be kept, got %+v", records[2])
	}
}

func TestLoadJSONLEmpty(t *testing.T) {
	path := writeFile(t, "bad.jsonl", "garbage\n{\n")
	if _, err := LoadJSONL(path); !errors.Is(err, internalerr.ErrEmptySource) {
		t.Errorf("Expected ErrEmptySource, got %v", err)
	}

	if _, err := LoadJSONL(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("Should error on missing file")
	}
}

func TestReadCSVAmazonLayout(t *testing.T) {
	in := `"2","Stuning even for the non-gamer","This sound track was beautiful!"
"1","Batteries died","Two days, then nothing."
"2","Fine","Commas, inside, unquoted
`
	records, err := ReadCSV(strings.NewReader(in), "amazon.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0].Label != record.Positive || records[1].Label != record.Negative {
		t.Errorf("Expected 2 -> positive and 1 -> negative, got %v and %v", records[0].Label, records[1].Label)
	}
	if records[1].Content != "Two days, then nothing." {
		t.Errorf("Unexpected content %q", records[1].Content)
	}
}

func TestReadCSVZeroOneWithHeader(t *testing.T) {
	in := "label,title,content\n0,Meh,Not great\n1,Love it,Five stars\nx,bad,row\nshort,row\n"
	records, err := ReadCSV(strings.NewReader(in), "direct.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Label != record.Negative || records[1].Label != record.Positive {
		t.Errorf("Expected 0/1 labels to map directly, got %v and %v", records[0].Label, records[1].Label)
	}
	if records[1].Title != "Love it" {
		t.Errorf("Expected title %q, got %q", "Love it", records[1].Title)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("label,title,content\n"), "empty.csv"); !errors.Is(err, internalerr.ErrEmptySource) {
		t.Errorf("Expected ErrEmptySource, got %v", err)
	}
}

func TestLoadByExtension(t *testing.T) {
	csvPath := writeFile(t, "data.CSV", "2,Good,Nice\n")
	records, err := Load(csvPath)
	if err != nil {
		t.Fatalf("Load csv: %v", err)
	}
	if len(records) != 1 || records[0].Label != record.Positive {
		t.Errorf("Expected one positive record, got %+v", records)
	}

	jsonPath := writeFile(t, "data.jsonl", `{"title":"t","content":"c","label":0}`)
	records, err = Load(jsonPath)
	if err != nil {
		t.Fatalf("Load jsonl: %v", err)
	}
	if len(records) != 1 || records[0].Label != record.Negative {
		t.Errorf("Expected one negative record, got %+v", records)
	}
}
