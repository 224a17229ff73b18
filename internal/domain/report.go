package domain

import "time"

// ReportMeta carries processing metadata for one run.
type ReportMeta struct {
	RunID         string    `json:"run_id"`
	EngineVersion string    `json:"engine_version"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	ClientCount   int       `json:"client_count"`
	ContactCount  int       `json:"contact_count"`
	LeadCount     int       `json:"lead_count"`
	AuditCount    int       `json:"audit_count"`
	ThreadCount   int       `json:"thread_count"`
	EnrichmentOK  bool      `json:"enrichment_ok"`
}

// PipelineBreakdown aggregates attribution outcomes for one pipeline.
type PipelineBreakdown struct {
	Pipeline      Pipeline `json:"pipeline"`
	Clients       int      `json:"clients"`
	Revenue       float64  `json:"revenue"`
	Share         float64  `json:"share"`
	AvgConfidence float64  `json:"avg_confidence"`
}

// VariantUsage summarizes how often one campaign variant appeared.
type VariantUsage struct {
	VariantID    string   `json:"variant_id"`
	Label        string   `json:"label"`
	Matches      int      `json:"matches"`
	ClientEmails []string `json:"client_emails"`
}

// VariantSummary splits variant usage into main-sequence and
// positive-reply sub-sequence buckets.
type VariantSummary struct {
	MainSequence []VariantUsage `json:"main_sequence"`
	SubSequence  []VariantUsage `json:"sub_sequence"`
}

// ConversionSummary aggregates the conversion-timing analysis.
type ConversionSummary struct {
	ClientsWithInsight int            `json:"clients_with_insight"`
	AvgDaysToConvert   float64        `json:"avg_days_to_convert"`
	ByVariant          map[string]int `json:"by_variant"`
}

// FunnelMetrics tracks contacted → replied → converted volumes for one
// pipeline, computed from the sequence stats.
type FunnelMetrics struct {
	Pipeline       Pipeline `json:"pipeline"`
	Contacted      int      `json:"contacted"`
	Replied        int      `json:"replied"`
	Converted      int      `json:"converted"`
	ReplyRate      float64  `json:"reply_rate"`
	ConversionRate float64  `json:"conversion_rate"`
}

// RevenueMetrics measures revenue efficiency per pipeline.
type RevenueMetrics struct {
	Pipeline            Pipeline `json:"pipeline"`
	Revenue             float64  `json:"revenue"`
	RevenuePerContacted float64  `json:"revenue_per_contacted"`
	RevenuePerClient    float64  `json:"revenue_per_client"`
}

// Report is the single output object of a run and the sole contract
// with the persistence and dashboard layers. Field names are stable;
// downstream consumers index into this structure directly.
type Report struct {
	Meta              ReportMeta          `json:"meta"`
	Pipelines         []PipelineBreakdown `json:"pipelines"`
	Clients           []AttributedClient  `json:"clients"`
	Variants          VariantSummary      `json:"variants"`
	ConversionSummary ConversionSummary   `json:"conversion_summary"`
	Funnel            []FunnelMetrics     `json:"funnel"`
	Revenue           []RevenueMetrics    `json:"revenue"`
}
