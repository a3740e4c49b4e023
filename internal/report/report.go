// Package report persists verification summaries when a session ends,
// either to a local JSON file or to a PostgreSQL archive table.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/karienad/dental-insurance-ai-agent/internal/verification"
)

// Writer persists one session's verification summary.
type Writer interface {
	Write(ctx context.Context, sessionID string, summary verification.Summary) error
}

// FileWriter writes each summary as indented JSON to a fixed path,
// overwriting the previous run's results.
type FileWriter struct {
	// Path is the output file, e.g. "verification_results.json".
	Path string
}

// Write marshals summary and writes it atomically (temp file + rename).
func (w *FileWriter) Write(_ context.Context, _ string, summary verification.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal summary: %w", err)
	}

	dir := filepath.Dir(w.Path)
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("report: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("report: rename into place: %w", err)
	}
	return nil
}

var _ Writer = (*FileWriter)(nil)
