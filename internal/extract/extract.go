// Package extract provides the identity extractors that pull normalized
// keys (invitation codes, Spotify artist IDs) out of free-form URLs and
// text. All functions are pure and total: a non-match returns "" and is
// an expected outcome, not an error.
package extract

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	reportPathRe = regexp.MustCompile(`/report/([A-Za-z0-9_-]+)`)

	// Spotify URL shapes in fixed priority order. The first capture
	// group that matches wins.
	spotifyRes = []*regexp.Regexp{
		regexp.MustCompile(`open\.spotify\.com/artist/([A-Za-z0-9]+)`),
		regexp.MustCompile(`open\.spotify\.com/track/([A-Za-z0-9]+)`),
		regexp.MustCompile(`open\.spotify\.com/album/([A-Za-z0-9]+)`),
		regexp.MustCompile(`spotify:artist:([A-Za-z0-9]+)`),
		regexp.MustCompile(`artists\.spotify\.com/(?:c/)?artist/([A-Za-z0-9]+)`),
	}

	uuidTokenRe = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// InvitationCode extracts an invitation code from a report-link URL.
// UUID-shaped tokens take priority; otherwise the path segment after
// /report/ is used. Returns "" when neither pattern matches.
func InvitationCode(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if tok := uuidTokenRe.FindString(rawURL); tok != "" {
		if _, err := uuid.Parse(tok); err == nil {
			return strings.ToLower(tok)
		}
	}
	if m := reportPathRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// SpotifyArtistID extracts a Spotify artist ID from any of the URL
// shapes the sources embed: open.spotify.com artist/track/album paths,
// the spotify: URI scheme, and the artists.spotify.com canonical form.
// Returns "" when no shape matches.
func SpotifyArtistID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	// Query strings and fragments never carry the ID.
	if i := strings.IndexAny(rawURL, "?#"); i != -1 {
		rawURL = rawURL[:i]
	}
	for _, re := range spotifyRes {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}
