package index

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// csvColumns is the required header of a correction lookup file.
var csvColumns = []string{"misheard", "correction", "context"}

// LoadCSV reads correction entries from the lookup file at path. The file
// must have a header row naming the misheard, correction, and context
// columns, in any order.
func LoadCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: open lookup file: %w", err)
	}
	defer f.Close()

	entries, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("index: %s: %w", path, err)
	}
	return entries, nil
}

// ReadCSV parses correction entries from r. Blank lines are skipped; rows
// with an empty misheard or correction cell are rejected.
func ReadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, want := range csvColumns {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", want, header)
		}
	}

	var entries []Entry
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		e := Entry{
			Misheard:   strings.TrimSpace(row[cols["misheard"]]),
			Correction: strings.TrimSpace(row[cols["correction"]]),
			Context:    strings.TrimSpace(row[cols["context"]]),
		}
		if e.Misheard == "" || e.Correction == "" {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: misheard and correction must be non-empty", line)
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("lookup table has no entries")
	}
	return entries, nil
}
