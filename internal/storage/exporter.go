// Package storage exports finished reports to durable locations. The
// dashboard reads through the API and cache; exports exist for archival
// and offline analysis.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/unitesync/attribution-engine/internal/domain"
)

// Exporter writes one report to a destination.
type Exporter interface {
	Export(ctx context.Context, rep *domain.Report) (string, error)
}

// LocalExporter writes reports as pretty-printed JSON files under a
// directory, one file per run.
type LocalExporter struct {
	dir string
}

// NewLocalExporter creates a LocalExporter rooted at dir.
func NewLocalExporter(dir string) *LocalExporter {
	return &LocalExporter{dir: dir}
}

// Export writes the report and returns the file path.
func (e *LocalExporter) Export(_ context.Context, rep *domain.Report) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	path := filepath.Join(e.dir, ReportKey(rep))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// ReportKey names a report object after its run.
func ReportKey(rep *domain.Report) string {
	return fmt.Sprintf("attribution-%s-%s.json",
		rep.Meta.FinishedAt.UTC().Format("20060102-150405"), rep.Meta.RunID)
}
