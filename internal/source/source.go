// Package source reads review records from files.
package source

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// maxLine bounds a single JSONL line; review bodies are far below this.
const maxLine = 4 << 20

// Load picks a reader by file extension: .csv is read with LoadCSV,
// everything else as JSONL.
func Load(path string) ([]record.RawRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadCSV(path)
	}
	return LoadJSONL(path)
}

// LoadJSONL loads one {"title","content","label"} object per line. Malformed
// lines are skipped with a warning.
func LoadJSONL(path string) ([]record.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	return ReadJSONL(f, path)
}

// ReadJSONL is LoadJSONL over a reader; name is used in messages.
func ReadJSONL(r io.Reader, name string) ([]record.RawRecord, error) {
	var records []record.RawRecord

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var raw struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Label   *int   `json:"label"`
		}
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			slog.Warn("[Source] skipping malformed JSON", slog.String("file", name), slog.Int("line", line), slog.String("error", err.Error()))
			continue
		}
		if raw.Label == nil {
			slog.Warn("[Source] skipping record without a label", slog.String("file", name), slog.Int("line", line))
			continue
		}
		rec := record.RawRecord{Title: raw.Title, Content: raw.Content, Label: record.Label(*raw.Label)}
		if err := rec.Validate(); err != nil {
			slog.Warn("[Source] skipping invalid record", slog.String("file", name), slog.Int("line", line), slog.String("error", err.Error()))
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", name, internalerr.ErrEmptySource)
	}
	return records, nil
}

// LoadCSV loads rows of label,title,content. Labels are either 1/2 (the
// Amazon polarity layout, 1 = negative) or 0/1; a file containing any 2 is
// read as 1/2. A first row whose label is not a number is a header.
func LoadCSV(path string) ([]record.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f, path)
}

// ReadCSV is LoadCSV over a reader; name is used in messages.
func ReadCSV(r io.Reader, name string) ([]record.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	type row struct {
		label          int
		title, content string
	}
	var rows []row
	shifted := false

	for n := 1; ; n++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				slog.Warn("[Source] skipping unparsable row", slog.String("file", name), slog.Int("line", perr.Line), slog.String("error", perr.Err.Error()))
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if len(fields) < 3 {
			slog.Warn("[Source] skipping short row", slog.String("file", name), slog.Int("row", n), slog.Int("fields", len(fields)))
			continue
		}

		label, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			if n > 1 {
				slog.Warn("[Source] skipping row with a non-numeric label", slog.String("file", name), slog.Int("row", n))
			}
			continue
		}
		if label < 0 || label > 2 {
			slog.Warn("[Source] skipping row with an unknown label", slog.String("file", name), slog.Int("row", n), slog.Int("label", label))
			continue
		}
		if label == 2 {
			shifted = true
		}
		rows = append(rows, row{label: label, title: fields[1], content: strings.Join(fields[2:], ",")})
	}

	records := make([]record.RawRecord, 0, len(rows))
	for _, r := range rows {
		label := r.label
		if shifted {
			if label == 0 {
				slog.Warn("[Source] skipping label 0 in a 1/2 labeled file", slog.String("file", name))
				continue
			}
			label--
		}
		records = append(records, record.RawRecord{Title: r.title, Content: r.content, Label: record.Label(label)})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", name, internalerr.ErrEmptySource)
	}
	return records, nil
}

