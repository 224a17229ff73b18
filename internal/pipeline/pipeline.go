// Package pipeline orchestrates one attribution run. Stages execute in
// strict sequence over an explicit run context; each returns new values
// consumed by the next, and only the thread-detail fetch touches the
// network. All loops are sequential: this is a one-shot batch job, not
// a service, and each run exclusively owns its records.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unitesync/attribution-engine/internal/attribution"
	"github.com/unitesync/attribution-engine/internal/config"
	"github.com/unitesync/attribution-engine/internal/conversion"
	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/enrichment"
	"github.com/unitesync/attribution-engine/internal/index"
	"github.com/unitesync/attribution-engine/internal/loader"
	"github.com/unitesync/attribution-engine/internal/pkg/logger"
	"github.com/unitesync/attribution-engine/internal/report"
)

// EngineVersion is stamped into every report's processing metadata.
const EngineVersion = "2.3.0"

// Deps carries the run's collaborators. A nil Fetcher disables the
// enrichment and conversion-timing stages, which is how offline runs
// and tests operate.
type Deps struct {
	Fetcher enrichment.ThreadFetcher
	Engine  config.EngineConfig
	Rules   config.VariantRules
}

// Run executes the full pipeline over the loaded sources and returns
// the report. An enrichment failure degrades the run (attribution
// results stand, variants and conversion insights are omitted) and is
// reflected in the report metadata rather than returned as an error.
func Run(ctx context.Context, src loader.Sources, deps Deps) (*domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startedAt := time.Now().UTC()
	runID := uuid.NewString()
	logger.Info("attribution run starting", "run_id", runID, "clients", len(src.Clients))

	builder := index.NewBuilder(deps.Engine)
	idx := builder.Build(src)
	logger.Debug("indexes built",
		"invitation_keys", len(idx.Invitation),
		"spotify_keys", len(idx.Spotify),
		"email_keys", len(idx.Email),
	)

	engine := attribution.NewEngine(idx, src.Audits)
	clients := engine.Attribute(src.Clients)

	enrichmentOK := false
	if deps.Fetcher != nil {
		classifier := enrichment.NewClassifier(deps.Rules, deps.Engine.MainSequenceID)
		enricher := enrichment.NewEnricher(deps.Fetcher, classifier)

		enriched, err := enricher.Enrich(ctx, clients, idx, src.Threads)
		if err != nil {
			// Stage-level failure: keep the attribution results and
			// skip conversion timing.
			logger.Error("enrichment failed, skipping variant stages", "run_id", runID, "error", err.Error())
		} else {
			clients = conversion.Annotate(enriched)
			enrichmentOK = true
		}
	}

	meta := domain.ReportMeta{
		RunID:         runID,
		EngineVersion: EngineVersion,
		StartedAt:     startedAt,
		FinishedAt:    time.Now().UTC(),
		ClientCount:   len(src.Clients),
		ContactCount:  len(src.Contacts),
		LeadCount:     len(src.Leads),
		AuditCount:    len(src.Audits),
		ThreadCount:   len(src.Threads),
		EnrichmentOK:  enrichmentOK,
	}

	rep := report.NewAggregator(builder).Aggregate(meta, clients, src)
	logger.Info("attribution run finished",
		"run_id", runID,
		"duration", meta.FinishedAt.Sub(meta.StartedAt).String(),
		"enrichment_ok", enrichmentOK,
	)
	return rep, nil
}
