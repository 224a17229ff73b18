// Package attribution implements the confidence-based waterfall that
// credits each converted client to the outreach channel that most
// plausibly caused the signup. Four independent matching strategies are
// evaluated per client, each timing-validated, and the highest
// confidence wins; an audit that follows prior outreach is reclassified
// so audit-driven signups sourced by email or Instagram are not
// over-counted.
package attribution

import (
	"strings"
	"time"

	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/index"
	"github.com/unitesync/attribution-engine/internal/loader"
	"github.com/unitesync/attribution-engine/internal/pkg/logger"
)

// Engine evaluates clients against the cross-source indexes.
type Engine struct {
	idx    index.Indexes
	audits []domain.Audit
}

// NewEngine creates an Engine over the built indexes and the raw audit
// records (audit matching also searches audits without a Spotify ID,
// which the Spotify index cannot carry).
func NewEngine(idx index.Indexes, audits []domain.Audit) *Engine {
	return &Engine{idx: idx, audits: audits}
}

// candidate is one method's proposed attribution for a client.
type candidate struct {
	pipeline    domain.Pipeline
	method      domain.Method
	timingScore float64
	details     domain.MatchDetails
}

func (c candidate) confidence() float64 { return c.method.Confidence() }

// Attribute evaluates every client independently and returns new
// attributed records in input order. A panic inside one evaluation is
// contained so a single bad record cannot abort the batch.
func (e *Engine) Attribute(clients []domain.Client) []domain.AttributedClient {
	out := make([]domain.AttributedClient, 0, len(clients))
	for _, client := range clients {
		out = append(out, e.attributeOne(client))
	}
	return out
}

func (e *Engine) attributeOne(client domain.Client) (result domain.AttributedClient) {
	result = domain.AttributedClient{Client: client, Variants: []domain.VariantMatch{}}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("client evaluation panicked, marking unattributed",
				"client", client.Email, "panic", r)
			result.Attribution = nil
		}
	}()

	signup, ok := loader.ParseSignupDate(client.SignupDate)
	if !ok {
		logger.Debug("unparseable signup date", "client", client.Email, "raw", client.SignupDate)
		return result
	}

	candidates := e.collectCandidates(client, signup)
	if len(candidates) == 0 {
		return result
	}

	winner := selectWinner(candidates)
	winner = mergeAuditAfterOutreach(winner, candidates)

	if !winner.pipeline.IsValid() {
		// Should be unreachable with the closed pipeline type; kept as
		// a guard against future matcher bugs.
		logger.Error("unknown pipeline label at final write",
			"client", client.Email, "pipeline", string(winner.pipeline))
		return result
	}

	result.Attribution = &domain.Attribution{
		Pipeline:    winner.pipeline,
		Method:      winner.method,
		Confidence:  winner.confidence(),
		TimingScore: winner.timingScore,
		Details:     winner.details,
	}
	return result
}

// collectCandidates runs the four matching strategies in waterfall
// order. Evaluation order doubles as the documented tie-break: equal
// confidence resolves to email_timing > invitation_code > spotify_id >
// audit.
func (e *Engine) collectCandidates(client domain.Client, signup time.Time) []candidate {
	var candidates []candidate
	if c, ok := e.matchEmailTiming(client, signup); ok {
		candidates = append(candidates, c)
	}
	if c, ok := e.matchInvitationCode(client, signup); ok {
		candidates = append(candidates, c)
	}
	if c, ok := e.matchSpotifyID(client, signup); ok {
		candidates = append(candidates, c)
	}
	if c, ok := e.matchAudit(client, signup); ok {
		candidates = append(candidates, c)
	}
	return candidates
}

func (e *Engine) matchEmailTiming(client domain.Client, signup time.Time) (candidate, bool) {
	touches := e.idx.Email[client.Key()]

	best := candidate{method: domain.MethodEmailTiming}
	found := false
	for _, touch := range touches {
		if touch.Source != domain.SourceContactStats || touch.ContactedAt == nil {
			continue
		}
		score, days := TimingScore(*touch.ContactedAt, signup, OutreachWindowDays, false)
		if score <= 0 || (found && score <= best.timingScore) {
			continue
		}
		found = true
		best.pipeline = touch.Pipeline
		best.timingScore = score
		best.details = domain.MatchDetails{
			MatchedKey:       client.Key(),
			TouchpointSource: string(touch.Source),
			ContactedAt:      touch.ContactedAt,
			DaysToSignup:     days,
		}
	}
	return best, found
}

func (e *Engine) matchInvitationCode(client domain.Client, signup time.Time) (candidate, bool) {
	code := strings.TrimSpace(client.InvitationCode)
	if code == "" {
		return candidate{}, false
	}
	touches := e.idx.Invitation[code]
	if len(touches) == 0 {
		touches = e.idx.Invitation[strings.ToLower(code)]
		code = strings.ToLower(code)
	}

	best := candidate{method: domain.MethodInvitationCode}
	found := false
	for _, touch := range touches {
		if touch.ContactedAt == nil {
			continue
		}
		score, days := TimingScore(*touch.ContactedAt, signup, OutreachWindowDays, false)
		if score <= 0 || (found && score <= best.timingScore) {
			continue
		}
		found = true
		best.pipeline = touch.Pipeline
		best.timingScore = score
		best.details = domain.MatchDetails{
			MatchedKey:       code,
			TouchpointSource: string(touch.Source),
			ContactedAt:      touch.ContactedAt,
			DaysToSignup:     days,
		}
	}
	return best, found
}

func (e *Engine) matchSpotifyID(client domain.Client, signup time.Time) (candidate, bool) {
	id := strings.TrimSpace(client.SpotifyArtistID)
	if id == "" {
		return candidate{}, false
	}

	best := candidate{method: domain.MethodSpotifyID}
	found := false
	for _, touch := range e.idx.Spotify[id] {
		// Audit-sourced touchpoints belong to the audit matcher and
		// its own confidence tier.
		if touch.Source == domain.SourceAuditRecord {
			continue
		}
		var score float64
		var days int
		if touch.ContactedAt == nil {
			// No timestamp anywhere on the touchpoint: flat score
			// rather than a timing rejection.
			score = InstagramFallbackScore
		} else {
			score, days = TimingScore(*touch.ContactedAt, signup, OutreachWindowDays, false)
		}
		if score <= 0 || (found && score <= best.timingScore) {
			continue
		}
		found = true
		best.pipeline = touch.Pipeline
		best.timingScore = score
		best.details = domain.MatchDetails{
			MatchedKey:       id,
			TouchpointSource: string(touch.Source),
			ContactedAt:      touch.ContactedAt,
			DaysToSignup:     days,
		}
	}
	return best, found
}

func (e *Engine) matchAudit(client domain.Client, signup time.Time) (candidate, bool) {
	var (
		bestAudit *domain.Audit
		bestScore float64
		bestDays  int
	)
	for i := range e.audits {
		audit := &e.audits[i]
		if !auditMatchesClient(audit, client) {
			continue
		}
		score, days := TimingScore(audit.RequestDate, signup, AuditWindowDays, true)
		if score <= 0 || (bestAudit != nil && score <= bestScore) {
			continue
		}
		bestAudit, bestScore, bestDays = audit, score, days
	}
	if bestAudit == nil {
		return candidate{}, false
	}

	requested := bestAudit.RequestDate
	details := domain.MatchDetails{
		MatchedKey:       client.Key(),
		TouchpointSource: string(domain.SourceAuditRecord),
		ContactedAt:      &requested,
		DaysToSignup:     bestDays,
	}
	if bestAudit.SpotifyArtistID != "" && bestAudit.SpotifyArtistID == client.SpotifyArtistID {
		details.MatchedKey = bestAudit.SpotifyArtistID
	}

	// An audit that follows earlier outreach is credited to that
	// outreach, not to the audit funnel.
	if prior, ok := e.priorOutreach(client, bestAudit.RequestDate); ok {
		details.PriorPipeline = prior
		return candidate{
			pipeline:    prior,
			method:      domain.MethodAuditAfterOutreach,
			timingScore: bestScore,
			details:     details,
		}, true
	}

	return candidate{
		pipeline:    domain.PipelineAudit,
		method:      domain.MethodAuditInbound,
		timingScore: bestScore,
		details:     details,
	}, true
}

func auditMatchesClient(audit *domain.Audit, client domain.Client) bool {
	if audit.Email != "" && audit.Email == client.Key() {
		return true
	}
	return audit.SpotifyArtistID != "" && audit.SpotifyArtistID == client.SpotifyArtistID
}

// priorOutreach searches every index for an outreach touchpoint dated
// strictly before the audit request. Audit-sourced touchpoints do not
// count as outreach.
func (e *Engine) priorOutreach(client domain.Client, before time.Time) (domain.Pipeline, bool) {
	check := func(touches []domain.Touchpoint) (domain.Pipeline, bool) {
		for _, touch := range touches {
			if touch.Source == domain.SourceAuditRecord || touch.ContactedAt == nil {
				continue
			}
			if touch.ContactedAt.Before(before) {
				return touch.Pipeline, true
			}
		}
		return "", false
	}

	if p, ok := check(e.idx.Email[client.Key()]); ok {
		return p, true
	}
	if code := strings.TrimSpace(client.InvitationCode); code != "" {
		if p, ok := check(e.idx.Invitation[code]); ok {
			return p, true
		}
		if p, ok := check(e.idx.Invitation[strings.ToLower(code)]); ok {
			return p, true
		}
	}
	if id := strings.TrimSpace(client.SpotifyArtistID); id != "" {
		if p, ok := check(e.idx.Spotify[id]); ok {
			return p, true
		}
	}
	return "", false
}

// selectWinner picks the candidate with the strictly highest
// confidence; ties resolve by method priority.
func selectWinner(candidates []candidate) candidate {
	winner := candidates[0]
	for _, c := range candidates[1:] {
		if c.confidence() > winner.confidence() ||
			(c.confidence() == winner.confidence() && c.method.Priority() < winner.method.Priority()) {
			winner = c
		}
	}
	return winner
}

// mergeAuditAfterOutreach applies the targeted second pass: when a
// non-audit outreach match wins and a separate audit candidate exists,
// the two merge into one audit_after_outreach entry attributed to the
// outreach pipeline, discarding both originals. This prevents
// over-counting audit-driven signups that were originally sourced by
// email or Instagram outreach even when the audit match was not
// initially dominant.
func mergeAuditAfterOutreach(winner candidate, candidates []candidate) candidate {
	if winner.method == domain.MethodAuditInbound || winner.method == domain.MethodAuditAfterOutreach ||
		winner.pipeline == domain.PipelineAudit {
		return winner
	}
	for _, c := range candidates {
		switch c.method {
		case domain.MethodAuditAfterOutreach:
			// Already carries the prior outreach pipeline found by the
			// index search.
			return c
		case domain.MethodAuditInbound:
			merged := c
			merged.method = domain.MethodAuditAfterOutreach
			merged.pipeline = winner.pipeline
			merged.details.PriorPipeline = winner.pipeline
			return merged
		}
	}
	return winner
}
