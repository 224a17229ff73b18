// Package report folds attribution results, enrichment, and auxiliary
// statistics into the single report object consumed by the persistence
// and dashboard layers.
package report

import (
	"sort"

	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/index"
	"github.com/unitesync/attribution-engine/internal/loader"
)

// Pipelines in stable output order. Downstream charts rely on this
// ordering.
var pipelineOrder = []domain.Pipeline{
	domain.PipelineEmailOld,
	domain.PipelineEmailNew,
	domain.PipelineInstagram,
	domain.PipelineAudit,
	domain.PipelineUnattributed,
}

// Aggregator computes the report from the run's final state.
type Aggregator struct {
	builder *index.Builder
}

// NewAggregator creates an Aggregator. The index builder supplies the
// same pipeline classification the email index used, so funnel rows and
// attribution counts agree.
func NewAggregator(builder *index.Builder) *Aggregator {
	return &Aggregator{builder: builder}
}

// Aggregate produces the full report. No partial or streaming output:
// the returned object is self-contained.
func (a *Aggregator) Aggregate(meta domain.ReportMeta, clients []domain.AttributedClient, src loader.Sources) *domain.Report {
	return &domain.Report{
		Meta:              meta,
		Pipelines:         a.pipelineBreakdown(clients),
		Clients:           clients,
		Variants:          variantSummary(clients),
		ConversionSummary: conversionSummary(clients),
		Funnel:            a.funnel(clients, src),
		Revenue:           a.revenue(clients, src),
	}
}

func (a *Aggregator) pipelineBreakdown(clients []domain.AttributedClient) []domain.PipelineBreakdown {
	type agg struct {
		count      int
		revenue    float64
		confidence float64
	}
	byPipeline := make(map[domain.Pipeline]*agg)
	for _, c := range clients {
		p := c.FinalPipeline()
		if byPipeline[p] == nil {
			byPipeline[p] = &agg{}
		}
		entry := byPipeline[p]
		entry.count++
		entry.revenue += c.Revenue
		if c.Attribution != nil {
			entry.confidence += c.Attribution.Confidence
		}
	}

	total := len(clients)
	out := make([]domain.PipelineBreakdown, 0, len(pipelineOrder))
	for _, p := range pipelineOrder {
		entry := byPipeline[p]
		if entry == nil {
			out = append(out, domain.PipelineBreakdown{Pipeline: p})
			continue
		}
		breakdown := domain.PipelineBreakdown{
			Pipeline: p,
			Clients:  entry.count,
			Revenue:  entry.revenue,
		}
		if total > 0 {
			breakdown.Share = float64(entry.count) / float64(total)
		}
		if p != domain.PipelineUnattributed && entry.count > 0 {
			breakdown.AvgConfidence = entry.confidence / float64(entry.count)
		}
		out = append(out, breakdown)
	}
	return out
}

func variantSummary(clients []domain.AttributedClient) domain.VariantSummary {
	type usage struct {
		label   string
		matches int
		emails  map[string]bool
		sub     bool
	}
	byVariant := make(map[string]*usage)
	for _, c := range clients {
		for _, v := range c.Variants {
			u := byVariant[v.VariantID]
			if u == nil {
				u = &usage{label: v.Label, emails: make(map[string]bool), sub: v.SubSequence}
				byVariant[v.VariantID] = u
			}
			u.matches++
			u.emails[c.Key()] = true
		}
	}

	ids := make([]string, 0, len(byVariant))
	for id := range byVariant {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var summary domain.VariantSummary
	summary.MainSequence = []domain.VariantUsage{}
	summary.SubSequence = []domain.VariantUsage{}
	for _, id := range ids {
		u := byVariant[id]
		emails := make([]string, 0, len(u.emails))
		for email := range u.emails {
			emails = append(emails, email)
		}
		sort.Strings(emails)

		entry := domain.VariantUsage{
			VariantID:    id,
			Label:        u.label,
			Matches:      u.matches,
			ClientEmails: emails,
		}
		if u.sub {
			summary.SubSequence = append(summary.SubSequence, entry)
		} else {
			summary.MainSequence = append(summary.MainSequence, entry)
		}
	}
	return summary
}

func conversionSummary(clients []domain.AttributedClient) domain.ConversionSummary {
	summary := domain.ConversionSummary{ByVariant: make(map[string]int)}
	var totalDays int
	for _, c := range clients {
		if c.Conversion == nil {
			continue
		}
		summary.ClientsWithInsight++
		totalDays += c.Conversion.DaysToConversion
		summary.ByVariant[c.Conversion.VariantID]++
	}
	if summary.ClientsWithInsight > 0 {
		summary.AvgDaysToConvert = float64(totalDays) / float64(summary.ClientsWithInsight)
	}
	return summary
}

func (a *Aggregator) funnel(clients []domain.AttributedClient, src loader.Sources) []domain.FunnelMetrics {
	contacted := make(map[domain.Pipeline]int)
	replied := make(map[domain.Pipeline]int)
	converted := make(map[domain.Pipeline]int)

	for _, stat := range src.Stats {
		p := a.builder.EmailPipeline(stat.ContactedAt, stat.SenderEmail)
		contacted[p]++
		if stat.RepliedAt != nil {
			replied[p]++
		}
	}
	for _, lead := range src.Leads {
		contacted[domain.PipelineInstagram]++
		if lead.Status == domain.LeadStatusReplied {
			replied[domain.PipelineInstagram]++
		}
	}
	contacted[domain.PipelineAudit] = len(src.Audits)
	for _, c := range clients {
		converted[c.FinalPipeline()]++
	}

	out := make([]domain.FunnelMetrics, 0, len(pipelineOrder)-1)
	for _, p := range pipelineOrder {
		if p == domain.PipelineUnattributed {
			continue
		}
		m := domain.FunnelMetrics{
			Pipeline:  p,
			Contacted: contacted[p],
			Replied:   replied[p],
			Converted: converted[p],
		}
		if m.Contacted > 0 {
			m.ReplyRate = float64(m.Replied) / float64(m.Contacted)
			m.ConversionRate = float64(m.Converted) / float64(m.Contacted)
		}
		out = append(out, m)
	}
	return out
}

func (a *Aggregator) revenue(clients []domain.AttributedClient, src loader.Sources) []domain.RevenueMetrics {
	contacted := make(map[domain.Pipeline]int)
	for _, stat := range src.Stats {
		contacted[a.builder.EmailPipeline(stat.ContactedAt, stat.SenderEmail)]++
	}
	contacted[domain.PipelineInstagram] = len(src.Leads)
	contacted[domain.PipelineAudit] = len(src.Audits)

	revenue := make(map[domain.Pipeline]float64)
	count := make(map[domain.Pipeline]int)
	for _, c := range clients {
		p := c.FinalPipeline()
		revenue[p] += c.Revenue
		count[p]++
	}

	out := make([]domain.RevenueMetrics, 0, len(pipelineOrder)-1)
	for _, p := range pipelineOrder {
		if p == domain.PipelineUnattributed {
			continue
		}
		m := domain.RevenueMetrics{Pipeline: p, Revenue: revenue[p]}
		if contacted[p] > 0 {
			m.RevenuePerContacted = revenue[p] / float64(contacted[p])
		}
		if count[p] > 0 {
			m.RevenuePerClient = revenue[p] / float64(count[p])
		}
		out = append(out, m)
	}
	return out
}
