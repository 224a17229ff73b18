// Package postgres persists finished attribution reports. The report
// body is stored as JSONB: the dashboard indexes into the object by
// fixed field names, so the database never needs to understand its
// internals.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unitesync/attribution-engine/internal/domain"
)

// ErrNotFound is returned when no report has been saved yet.
var ErrNotFound = errors.New("report not found")

// ReportRepo implements report persistence against PostgreSQL.
type ReportRepo struct{ db *sql.DB }

// NewReportRepo creates a Postgres-backed report repository.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// Migrate creates the reports table when missing.
func (r *ReportRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attribution_reports (
			run_id         UUID PRIMARY KEY,
			engine_version TEXT NOT NULL,
			started_at     TIMESTAMPTZ NOT NULL,
			finished_at    TIMESTAMPTZ NOT NULL,
			client_count   INT NOT NULL,
			enrichment_ok  BOOLEAN NOT NULL,
			report         JSONB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrating attribution_reports: %w", err)
	}
	return nil
}

// Save inserts one finished report.
func (r *ReportRepo) Save(ctx context.Context, rep *domain.Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO attribution_reports
			(run_id, engine_version, started_at, finished_at, client_count, enrichment_ok, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rep.Meta.RunID, rep.Meta.EngineVersion, rep.Meta.StartedAt, rep.Meta.FinishedAt,
		rep.Meta.ClientCount, rep.Meta.EnrichmentOK, body)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// Latest returns the most recently finished report.
func (r *ReportRepo) Latest(ctx context.Context) (*domain.Report, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT report FROM attribution_reports
		ORDER BY finished_at DESC
		LIMIT 1
	`).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest report: %w", err)
	}

	var rep domain.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("parsing stored report: %w", err)
	}
	return &rep, nil
}

// Get returns one report by its run ID.
func (r *ReportRepo) Get(ctx context.Context, runID string) (*domain.Report, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT report FROM attribution_reports WHERE run_id = $1
	`, runID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", runID, err)
	}

	var rep domain.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("parsing stored report: %w", err)
	}
	return &rep, nil
}
