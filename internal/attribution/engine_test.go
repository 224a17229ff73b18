package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitesync/attribution-engine/internal/config"
	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/index"
	"github.com/unitesync/attribution-engine/internal/loader"
)

func engineConfig() config.EngineConfig {
	return config.EngineConfig{
		MethodCutoffDate:      "2024-12-01",
		NewMethodSenderDomain: "unitesync.io",
	}
}

func buildEngine(t *testing.T, src loader.Sources) *Engine {
	t.Helper()
	idx := index.NewBuilder(engineConfig()).Build(src)
	return NewEngine(idx, src.Audits)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestInvitationCodeMatch(t *testing.T) {
	// Contact enrolled 10 days before signup, report link carrying the
	// client's invitation code.
	src := loader.Sources{
		Contacts: []domain.Contact{{
			Email:      "artist@example.com",
			CustomVars: map[string]string{domain.VarReportLink: "https://pub.unitesync.com/report/abc123"},
			EnrolledAt: datePtr(2025, time.March, 5),
		}},
		Clients: []domain.Client{{
			Email:          "artist@gmail.com",
			SignupDate:     "15/03/2025",
			InvitationCode: "abc123",
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	require.Len(t, results, 1)
	attr := results[0].Attribution
	require.NotNil(t, attr)

	assert.Equal(t, domain.MethodInvitationCode, attr.Method)
	assert.Equal(t, 0.85, attr.Confidence)
	assert.InDelta(t, 1.0-10.0/365.0, attr.TimingScore, 1e-9)
	assert.Equal(t, domain.PipelineEmailNew, attr.Pipeline)
	assert.Equal(t, "abc123", attr.Details.MatchedKey)
	assert.Equal(t, 10, attr.Details.DaysToSignup)
}

func TestAuditAfterOutreach(t *testing.T) {
	// Audit 5 days before signup, but a sequence send reached the same
	// client 20 days before the audit: credit goes to the outreach
	// pipeline at audit_after_outreach confidence.
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:           "band@example.com",
			SignupDate:      "15/03/2025",
			SpotifyArtistID: "4Z8W4fKeB5YxbusRsdQVPb",
		}},
		Audits: []domain.Audit{{
			Email:           "band@example.com",
			SpotifyArtistID: "4Z8W4fKeB5YxbusRsdQVPb",
			RequestDate:     time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		}},
		Stats: []domain.SequenceStat{{
			Email:       "band@example.com",
			ContactedAt: datePtr(2025, time.February, 18),
			Sequence:    domain.SequenceCurrent,
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	require.Len(t, results, 1)
	attr := results[0].Attribution
	require.NotNil(t, attr)

	assert.Equal(t, domain.MethodAuditAfterOutreach, attr.Method)
	assert.Equal(t, 0.75, attr.Confidence)
	// Contacted after the method cutoff, so the stat derives New Method.
	assert.Equal(t, domain.PipelineEmailNew, attr.Pipeline)
	assert.InDelta(t, 1.0-5.0/90.0, attr.TimingScore, 1e-9)
}

func TestNoMatchIsUnattributed(t *testing.T) {
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:      "nobody@example.com",
			SignupDate: "15/03/2025",
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Attribution)
	assert.Equal(t, domain.PipelineUnattributed, results[0].FinalPipeline())
}

func TestAuditInboundSameDay(t *testing.T) {
	// Audit on the signup day with no prior outreach: inbound audit at
	// the maximum timing score.
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:      "solo@example.com",
			SignupDate: "15/03/2025",
		}},
		Audits: []domain.Audit{{
			Email:       "solo@example.com",
			RequestDate: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	require.Len(t, results, 1)
	attr := results[0].Attribution
	require.NotNil(t, attr)

	assert.Equal(t, domain.MethodAuditInbound, attr.Method)
	assert.Equal(t, 0.70, attr.Confidence)
	assert.Equal(t, domain.PipelineAudit, attr.Pipeline)
	assert.Equal(t, 1.0, attr.TimingScore)
}

func TestEmailTimingPrefersMostRecentTouchpoint(t *testing.T) {
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:      "duo@example.com",
			SignupDate: "15/03/2025",
		}},
		Stats: []domain.SequenceStat{
			{Email: "duo@example.com", ContactedAt: datePtr(2024, time.June, 1), Sequence: domain.SequenceLegacyA},
			{Email: "duo@example.com", ContactedAt: datePtr(2025, time.March, 1), Sequence: domain.SequenceCurrent},
		},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	attr := results[0].Attribution
	require.NotNil(t, attr)

	assert.Equal(t, domain.MethodEmailTiming, attr.Method)
	assert.Equal(t, 0.90, attr.Confidence)
	assert.Equal(t, 14, attr.Details.DaysToSignup)
	assert.Equal(t, domain.PipelineEmailNew, attr.Pipeline)
}

func TestLegacyStatDerivesOldMethod(t *testing.T) {
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:      "legacy@example.com",
			SignupDate: "15/01/2025",
		}},
		Stats: []domain.SequenceStat{{
			Email:       "legacy@example.com",
			ContactedAt: datePtr(2024, time.October, 10),
			Sequence:    domain.SequenceLegacyA,
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	attr := results[0].Attribution
	require.NotNil(t, attr)
	assert.Equal(t, domain.PipelineEmailOld, attr.Pipeline)
}

func TestInstagramLeadWithoutTimestamp(t *testing.T) {
	// Instagram exports often omit the contact date; a Spotify match
	// against such a lead gets the flat fallback score.
	src := loader.Sources{
		Leads: []domain.Lead{{
			Email:            "ig@example.com",
			SpotifyArtistURL: "https://open.spotify.com/artist/0TnOYISbd1XYRBk9myaseg",
			Status:           domain.LeadStatusContacted,
		}},
		Clients: []domain.Client{{
			Email:           "other@example.com",
			SignupDate:      "15/03/2025",
			SpotifyArtistID: "0TnOYISbd1XYRBk9myaseg",
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	attr := results[0].Attribution
	require.NotNil(t, attr)

	assert.Equal(t, domain.MethodSpotifyID, attr.Method)
	assert.Equal(t, 0.80, attr.Confidence)
	assert.Equal(t, InstagramFallbackScore, attr.TimingScore)
	assert.Equal(t, domain.PipelineInstagram, attr.Pipeline)
}

func TestAuditTouchpointDoesNotMatchAsSpotify(t *testing.T) {
	// The Spotify index carries audit records, but the spotify_id
	// method must not claim them at its higher confidence.
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:           "aud@example.com",
			SignupDate:      "15/03/2025",
			SpotifyArtistID: "1URnnhqYAYcrqrcwql10ft",
		}},
		Audits: []domain.Audit{{
			Email:           "aud@example.com",
			SpotifyArtistID: "1URnnhqYAYcrqrcwql10ft",
			RequestDate:     time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	attr := results[0].Attribution
	require.NotNil(t, attr)
	assert.Equal(t, domain.MethodAuditInbound, attr.Method)
	assert.Equal(t, 0.70, attr.Confidence)
}

func TestUnparseableSignupDate(t *testing.T) {
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:      "baddate@example.com",
			SignupDate: "March 15th 2025",
		}},
		Audits: []domain.Audit{{
			Email:       "baddate@example.com",
			RequestDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	assert.Nil(t, results[0].Attribution)
}

func TestAuditOutsideWindow(t *testing.T) {
	// 91+ days between audit and signup invalidates the match.
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:      "late@example.com",
			SignupDate: "15/03/2025",
		}},
		Audits: []domain.Audit{{
			Email:       "late@example.com",
			RequestDate: time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC),
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	assert.Nil(t, results[0].Attribution)
}

func TestOutreachWinnerMergesWithInboundAudit(t *testing.T) {
	// The outreach touchpoint postdates the audit, so the audit matcher
	// alone reports audit_inbound; the second pass still merges the two
	// into audit_after_outreach on the outreach pipeline.
	src := loader.Sources{
		Clients: []domain.Client{{
			Email:      "merge@example.com",
			SignupDate: "15/03/2025",
		}},
		Audits: []domain.Audit{{
			Email:       "merge@example.com",
			RequestDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		}},
		Stats: []domain.SequenceStat{{
			Email:       "merge@example.com",
			ContactedAt: datePtr(2025, time.February, 20),
			Sequence:    domain.SequenceCurrent,
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	attr := results[0].Attribution
	require.NotNil(t, attr)

	assert.Equal(t, domain.MethodAuditAfterOutreach, attr.Method)
	assert.Equal(t, 0.75, attr.Confidence)
	assert.Equal(t, domain.PipelineEmailNew, attr.Pipeline)
	assert.Equal(t, domain.PipelineEmailNew, attr.Details.PriorPipeline)
}

func TestAttributionIsIdempotent(t *testing.T) {
	src := loader.Sources{
		Contacts: []domain.Contact{{
			Email:      "artist@example.com",
			CustomVars: map[string]string{domain.VarReportLink: "https://pub.unitesync.com/report/abc123"},
			EnrolledAt: datePtr(2025, time.March, 5),
		}},
		Clients: []domain.Client{
			{Email: "artist@gmail.com", SignupDate: "15/03/2025", InvitationCode: "abc123"},
			{Email: "solo@example.com", SignupDate: "15/03/2025"},
		},
		Audits: []domain.Audit{{
			Email:       "solo@example.com",
			RequestDate: time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
		}},
	}

	engine := buildEngine(t, src)
	first := engine.Attribute(src.Clients)
	second := engine.Attribute(src.Clients)
	assert.Equal(t, first, second)
}

func TestWinnerConfidenceDominatesCandidates(t *testing.T) {
	// Client matching via email stats, invitation code, and Spotify ID
	// simultaneously: email_timing carries the highest confidence.
	src := loader.Sources{
		Contacts: []domain.Contact{{
			Email: "multi@example.com",
			CustomVars: map[string]string{
				domain.VarReportLink: "https://pub.unitesync.com/report/multi1",
				domain.VarSpotifyID:  "2x9SpqnPi8rlE9pYSUspwq",
			},
			EnrolledAt: datePtr(2025, time.February, 1),
		}},
		Clients: []domain.Client{{
			Email:           "multi@example.com",
			SignupDate:      "15/03/2025",
			InvitationCode:  "multi1",
			SpotifyArtistID: "2x9SpqnPi8rlE9pYSUspwq",
		}},
		Stats: []domain.SequenceStat{{
			Email:       "multi@example.com",
			ContactedAt: datePtr(2025, time.February, 1),
			Sequence:    domain.SequenceCurrent,
		}},
	}

	results := buildEngine(t, src).Attribute(src.Clients)
	attr := results[0].Attribution
	require.NotNil(t, attr)
	assert.Equal(t, domain.MethodEmailTiming, attr.Method)
	assert.Equal(t, 0.90, attr.Confidence)
}
