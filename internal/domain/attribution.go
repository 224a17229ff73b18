package domain

import "time"

// TouchpointSource names the collection a touchpoint was indexed from.
type TouchpointSource string

const (
	SourceContact      TouchpointSource = "contact"
	SourceLead         TouchpointSource = "lead"
	SourceAuditRecord  TouchpointSource = "audit"
	SourceContactStats TouchpointSource = "contact_stats"
)

// Touchpoint is a single recorded contact event carried by one of the
// cross-source indexes. Exactly one of Contact/Lead/Audit is set,
// matching Source; indexes hold references, they own no data.
type Touchpoint struct {
	Source      TouchpointSource `json:"source"`
	Pipeline    Pipeline         `json:"pipeline"`
	Email       string           `json:"email,omitempty"`
	ContactedAt *time.Time       `json:"contacted_at,omitempty"`

	Contact *Contact `json:"-"`
	Lead    *Lead    `json:"-"`
	Audit   *Audit   `json:"-"`
}

// MatchDetails records how a winning touchpoint lined up with the
// client, for audit trails in the report.
type MatchDetails struct {
	MatchedKey       string     `json:"matched_key"`
	TouchpointSource string     `json:"touchpoint_source"`
	ContactedAt      *time.Time `json:"contacted_at,omitempty"`
	DaysToSignup     int        `json:"days_to_signup"`
	PriorPipeline    Pipeline   `json:"prior_pipeline,omitempty"`
}

// Attribution is the outcome of the waterfall for one client. All
// fields are set together or not at all; an Unattributed client carries
// a nil Attribution.
type Attribution struct {
	Pipeline    Pipeline     `json:"pipeline"`
	Method      Method       `json:"method"`
	Confidence  float64      `json:"confidence"`
	TimingScore float64      `json:"timing_score"`
	Details     MatchDetails `json:"details"`
}

// VariantMatch ties one classified sequence email to a campaign variant.
type VariantMatch struct {
	VariantID   string     `json:"variant_id"`
	Label       string     `json:"label"`
	Confidence  float64    `json:"confidence"`
	EmailID     string     `json:"email_id"`
	Subject     string     `json:"subject"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	ThreadID    string     `json:"thread_id"`
	SubSequence bool       `json:"sub_sequence"`
}

// ConversionInsight marks the last variant email sent before signup as
// the conversion-causing touchpoint.
type ConversionInsight struct {
	VariantID        string  `json:"variant_id"`
	Label            string  `json:"label"`
	EmailID          string  `json:"email_id"`
	DaysToConversion int     `json:"days_to_conversion"`
	Confidence       float64 `json:"confidence"`
}

// AttributedClient is a client enriched by the pipeline stages. Stages
// return new values keyed by Client.Key; nothing is mutated in place.
type AttributedClient struct {
	Client
	Attribution *Attribution       `json:"attribution,omitempty"`
	Variants    []VariantMatch     `json:"variants"`
	Conversion  *ConversionInsight `json:"conversion,omitempty"`
}

// FinalPipeline returns the client's pipeline label, Unattributed when
// no attribution was produced.
func (a AttributedClient) FinalPipeline() Pipeline {
	if a.Attribution == nil {
		return PipelineUnattributed
	}
	return a.Attribution.Pipeline
}
