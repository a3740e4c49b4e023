package index_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"misheard,correction,context",
		"humana dental care,Humana Dental,patient information",
		"the duck tibble is fifty,the deductible is fifty,insurance verification",
	}, "\n")

	entries, err := index.ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	want := index.Entry{
		Misheard:   "humana dental care",
		Correction: "Humana Dental",
		Context:    "patient information",
	}
	if entries[0] != want {
		t.Errorf("first entry: want %+v, got %+v", want, entries[0])
	}
}

func TestReadCSVColumnOrderIndependent(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"context,correction,misheard",
		"insurance verification,annual maximum,annual max come",
	}, "\n")

	entries, err := index.ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if entries[0].Misheard != "annual max come" || entries[0].Correction != "annual maximum" {
		t.Errorf("columns mapped wrong: %+v", entries[0])
	}
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "empty file", in: ""},
		{name: "missing column", in: "misheard,correction\na,b"},
		{name: "header only", in: "misheard,correction,context"},
		{name: "empty correction", in: "misheard,correction,context\nfoo,,ctx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := index.ReadCSV(strings.NewReader(tt.in)); err == nil {
				t.Fatal("want error, got nil")
			}
		})
	}
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lookup.csv")
	content := "misheard,correction,context\nmember eye dee,member ID,patient information\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := index.LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entries) != 1 || entries[0].Correction != "member ID" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if _, err := index.LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("want error for missing file")
	}
}
