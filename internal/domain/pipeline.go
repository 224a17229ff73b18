package domain

// Pipeline is the outreach channel ultimately credited for a client's
// signup. The set is closed: every client ends a run with exactly one
// of these labels.
type Pipeline string

const (
	PipelineEmailOld     Pipeline = "Email Outreach - Old Method"
	PipelineEmailNew     Pipeline = "Email Outreach - New Method"
	PipelineInstagram    Pipeline = "Instagram Outreach"
	PipelineAudit        Pipeline = "Royalty Audit"
	PipelineUnattributed Pipeline = "Unattributed"
)

// IsValid reports whether p is one of the five known pipeline labels.
func (p Pipeline) IsValid() bool {
	switch p {
	case PipelineEmailOld, PipelineEmailNew, PipelineInstagram, PipelineAudit, PipelineUnattributed:
		return true
	}
	return false
}

// IsEmail reports whether p is one of the two email sequence pipelines.
func (p Pipeline) IsEmail() bool {
	return p == PipelineEmailOld || p == PipelineEmailNew
}

// Method identifies the matching strategy that produced an attribution.
type Method string

const (
	MethodEmailTiming        Method = "email_timing"
	MethodInvitationCode     Method = "invitation_code"
	MethodSpotifyID          Method = "spotify_id"
	MethodAuditAfterOutreach Method = "audit_after_outreach"
	MethodAuditInbound       Method = "audit_inbound"
)

// Confidence returns the fixed weight assigned to a matching method,
// independent of timing quality.
func (m Method) Confidence() float64 {
	switch m {
	case MethodEmailTiming:
		return 0.90
	case MethodInvitationCode:
		return 0.85
	case MethodSpotifyID:
		return 0.80
	case MethodAuditAfterOutreach:
		return 0.75
	case MethodAuditInbound:
		return 0.70
	}
	return 0
}

// Priority orders methods for tie-breaking when two candidates carry
// identical confidence. Lower value wins.
func (m Method) Priority() int {
	switch m {
	case MethodEmailTiming:
		return 0
	case MethodInvitationCode:
		return 1
	case MethodSpotifyID:
		return 2
	case MethodAuditAfterOutreach:
		return 3
	case MethodAuditInbound:
		return 4
	}
	return 5
}
