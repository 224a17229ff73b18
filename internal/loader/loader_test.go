package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitesync/attribution-engine/internal/domain"
)

func TestUnwrapResponse(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		items, err := UnwrapResponse([]byte(`[{"a":1},{"a":2}]`))
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("wrapped object", func(t *testing.T) {
		items, err := UnwrapResponse([]byte(`{"response":[{"a":1}]}`))
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("empty and null", func(t *testing.T) {
		for _, raw := range []string{"", "null", "  "} {
			items, err := UnwrapResponse([]byte(raw))
			require.NoError(t, err)
			assert.Empty(t, items)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := UnwrapResponse([]byte(`[{"a":`))
		assert.Error(t, err)
	})
}

func TestParseSignupDate(t *testing.T) {
	got, ok := ParseSignupDate("15/03/2025")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseSignupDate("2/1/2025")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseSignupDate("15-03-2025")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), got)

	for _, raw := range []string{"", "2025-03-15", "March 15 2025", "99/99/2025"} {
		_, ok := ParseSignupDate(raw)
		assert.False(t, ok, "input %q", raw)
	}
}

func TestParseFlexibleTime(t *testing.T) {
	got := ParseFlexibleTime("2025-03-15T10:30:00Z")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC), *got)

	got = ParseFlexibleTime("2025-03-15 10:30:00")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC), *got)

	got = ParseFlexibleTime("2025-03-15")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, ParseFlexibleTime(""))
	assert.Nil(t, ParseFlexibleTime("15/03/2025"))
}

func TestParseRevenue(t *testing.T) {
	assert.Equal(t, 1234.56, ParseRevenue("$1,234.56"))
	assert.Equal(t, 99.0, ParseRevenue("99"))
	assert.Equal(t, 0.0, ParseRevenue(""))
	assert.Equal(t, 0.0, ParseRevenue("n/a"))
}

func TestClients(t *testing.T) {
	clients, err := Clients([]byte(`{"response":[
		{"email":"Artist@Example.COM","name":"Artist","signup_date":"15/03/2025","revenue":"$1,200.00","invitation_code":" abc123 ","status":"Active"},
		{"email":"","signup_date":"01/01/2025"},
		{"email":"gone@example.com","signup_date":"10/02/2025","status":"inactive"}
	]}`))
	require.NoError(t, err)
	require.Len(t, clients, 2)

	assert.Equal(t, "artist@example.com", clients[0].Email)
	assert.Equal(t, 1200.0, clients[0].Revenue)
	assert.Equal(t, "abc123", clients[0].InvitationCode)
	assert.Equal(t, domain.ClientActive, clients[0].Status)
	assert.Equal(t, domain.ClientInactive, clients[1].Status)
}

func TestAuditsDropUndatedRows(t *testing.T) {
	audits, err := Audits([]byte(`[
		{"email":"A@Example.com","spotify_artist_id":"abc","request_date":"2025-03-01"},
		{"email":"b@example.com","request_date":""},
		{"email":"c@example.com","request_date":"not a date"}
	]`))
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, "a@example.com", audits[0].Email)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), audits[0].RequestDate)
}

func TestLeadsTaggedWithFeedStatus(t *testing.T) {
	leads, err := Leads([]byte(`[
		{"email":"Lead@Example.com","spotify_artist_url":"https://open.spotify.com/artist/xyz","contacted_at":"2025-02-01"}
	]`), domain.LeadStatusReplied)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "lead@example.com", leads[0].Email)
	assert.Equal(t, domain.LeadStatusReplied, leads[0].Status)
	require.NotNil(t, leads[0].ContactedAt)
}

func TestSequenceStatsSkipBadRows(t *testing.T) {
	stats, err := SequenceStats([]byte(`[
		{"email":"one@example.com","contacted_at":"2025-01-05","sender_email":"Out@UniteSync.io"},
		{"email":""},
		["not","an","object"]
	]`), domain.SequenceCurrent)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.SequenceCurrent, stats[0].Sequence)
	assert.Equal(t, "out@unitesync.io", stats[0].SenderEmail)
}
