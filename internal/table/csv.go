package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadOptions describe where the data starts in an export file.
type ReadOptions struct {
	IDColumn string
	// SkipRows are dropped before the header row.
	SkipRows int
	// LeadingRows are kept aside between the header and the data.
	LeadingRows int
}

// Raw is an export split into its parts. Leading holds rows that sit
// between the header and the student rows and must be written back as is.
type Raw struct {
	Header  []string
	Leading [][]string
	Records [][]string
}

// ReadCSV loads a delimited export.
func ReadCSV(r io.Reader, name string, opts ReadOptions) (*Table, *Raw, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return fromRecords(name, records, opts)
}

// ReadFile picks a reader by file extension: .xlsx goes through excelize,
// everything else is treated as CSV.
func ReadFile(path string, opts ReadOptions) (*Table, *Raw, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f, path, opts)
}

func fromRecords(name string, records [][]string, opts ReadOptions) (*Table, *Raw, error) {
	if len(records) <= opts.SkipRows {
		return nil, nil, fmt.Errorf("%s: no header row after skipping %d rows", name, opts.SkipRows)
	}
	records = records[opts.SkipRows:]

	raw := &Raw{Header: trimHeader(records[0])}
	body := records[1:]
	if len(body) < opts.LeadingRows {
		return nil, nil, fmt.Errorf("%s: expected %d leading rows, found %d", name, opts.LeadingRows, len(body))
	}
	raw.Leading = body[:opts.LeadingRows]
	raw.Records = body[opts.LeadingRows:]

	// 1-based file line of the first record: skipped rows, header, leading rows.
	firstLine := opts.SkipRows + 1 + opts.LeadingRows + 1
	t, err := newTable(name, raw.Header, raw.Records, opts.IDColumn, firstLine)
	if err != nil {
		return nil, nil, err
	}
	return t, raw, nil
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}

// WriteCSV writes the table, with optional pass-through rows placed right
// after the header.
func WriteCSV(w io.Writer, t *Table, leading [][]string) error {
	writer := csv.NewWriter(w)
	records := t.Records()

	if err := writer.Write(records[0]); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	width := len(records[0])
	for _, row := range leading {
		padded := make([]string, width)
		copy(padded, row)
		if err := writer.Write(padded); err != nil {
			return fmt.Errorf("failed to write leading row: %w", err)
		}
	}
	if err := writer.WriteAll(records[1:]); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// WriteCSVFile writes the table to path, creating parent directories.
func WriteCSVFile(path string, t *Table, leading [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, t, leading); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
