package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvitationCode(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"report path", "https://pub.unitesync.com/report/abc123", "abc123"},
		{"uuid token", "https://pub.unitesync.com/report/6f1c2a4e-8b3d-4f5a-9c7e-1d2b3a4c5d6e", "6f1c2a4e-8b3d-4f5a-9c7e-1d2b3a4c5d6e"},
		{"uuid outside report path", "https://pub.unitesync.com/r?code=6F1C2A4E-8B3D-4F5A-9C7E-1D2B3A4C5D6E", "6f1c2a4e-8b3d-4f5a-9c7e-1d2b3a4c5d6e"},
		{"trailing path", "https://pub.unitesync.com/report/xY_9-q/details", "xY_9-q"},
		{"no match", "https://pub.unitesync.com/pricing", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InvitationCode(tt.url))
		})
	}
}

func TestSpotifyArtistID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"artist path", "https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb", "4Z8W4fKeB5YxbusRsdQVPb"},
		{"artist path with query", "https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb?si=xyz", "4Z8W4fKeB5YxbusRsdQVPb"},
		{"track path", "https://open.spotify.com/track/11dFghVXANMlKmJXsNCbNl", "11dFghVXANMlKmJXsNCbNl"},
		{"album path", "https://open.spotify.com/album/6akEvsycLGftJxYudPjmqK", "6akEvsycLGftJxYudPjmqK"},
		{"uri scheme", "spotify:artist:4Z8W4fKeB5YxbusRsdQVPb", "4Z8W4fKeB5YxbusRsdQVPb"},
		{"artists domain", "https://artists.spotify.com/c/artist/4Z8W4fKeB5YxbusRsdQVPb/profile", "4Z8W4fKeB5YxbusRsdQVPb"},
		{"no match", "https://example.com/artist/123", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpotifyArtistID(tt.url))
		})
	}
}

// Round-trip: extractors applied to well-formed synthetic URLs recover
// the original key.
func TestExtractorsRoundTrip(t *testing.T) {
	code := "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	assert.Equal(t, code, InvitationCode("https://pub.unitesync.com/report/"+code))

	plain := "myband2024"
	assert.Equal(t, plain, InvitationCode("https://pub.unitesync.com/report/"+plain))

	id := "0TnOYISbd1XYRBk9myaseg"
	assert.Equal(t, id, SpotifyArtistID("https://open.spotify.com/artist/"+id))
	assert.Equal(t, id, SpotifyArtistID("spotify:artist:"+id))
}
