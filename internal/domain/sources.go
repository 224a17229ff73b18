package domain

import (
	"strings"
	"time"
)

// Contact is an outreach target from the cold-email system. Custom
// variables may embed a report link or a Spotify profile URL depending
// on which campaign enrolled the contact.
type Contact struct {
	Email      string            `json:"email"`
	CustomVars map[string]string `json:"custom_vars"`
	EnrolledAt *time.Time        `json:"enrolled_at"`
}

// Custom variable keys populated by the enrollment campaigns.
const (
	VarReportLink     = "report_link"
	VarSpotifyURL     = "spotify_url"
	VarSpotifyID      = "spotify_id"
	VarArtistSpotify  = "artist_spotify_id"
	VarInvitationLink = "invitation_link"
)

// Var returns the named custom variable, or "" when absent.
func (c Contact) Var(key string) string {
	if c.CustomVars == nil {
		return ""
	}
	return c.CustomVars[key]
}

// ReportLink returns the embedded report-link URL, if any.
func (c Contact) ReportLink() string {
	if v := c.Var(VarReportLink); v != "" {
		return v
	}
	return c.Var(VarInvitationLink)
}

// LeadStatus is the campaign state reported by the social outreach tool.
type LeadStatus string

const (
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusReplied   LeadStatus = "replied"
	LeadStatusQueued    LeadStatus = "queued"
)

// Lead is an outreach target from the Instagram campaign tool.
type Lead struct {
	Email            string     `json:"email"`
	InstagramURL     string     `json:"instagram_url"`
	SpotifyArtistURL string     `json:"spotify_artist_url"`
	ReportLink       string     `json:"report_link"`
	TrackingLink     string     `json:"tracking_link"`
	Status           LeadStatus `json:"status"`
	ContactedAt      *time.Time `json:"contacted_at"`
}

// ClientStatus marks whether a converted client is still active.
type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
)

// Client is a converted customer, the central record of a run. Signup
// date is kept in its raw day/month/year text form; parsing happens at
// attribution time so an unparseable date degrades to Unattributed
// instead of failing the load.
type Client struct {
	Email           string       `json:"email"`
	Name            string       `json:"name"`
	SignupDate      string       `json:"signup_date"`
	Revenue         float64      `json:"revenue"`
	InvitationCode  string       `json:"invitation_code,omitempty"`
	SpotifyArtistID string       `json:"spotify_artist_id,omitempty"`
	Status          ClientStatus `json:"status"`
}

// Key returns the client's identity key (lower-cased email) used to
// join stage outputs.
func (c Client) Key() string { return strings.ToLower(strings.TrimSpace(c.Email)) }

// Audit is an inbound royalty-audit request.
type Audit struct {
	Email           string    `json:"email"`
	SpotifyArtistID string    `json:"spotify_artist_id"`
	RequestDate     time.Time `json:"request_date"`
	Source          string    `json:"source"`
}

// SequenceKind identifies which of the four logical email sequences a
// stat row belongs to.
type SequenceKind string

const (
	SequenceLegacyA       SequenceKind = "legacy_a"
	SequenceLegacyB       SequenceKind = "legacy_b"
	SequenceCurrent       SequenceKind = "current"
	SequencePositiveReply SequenceKind = "positive_reply"
)

// SequenceStat is one row per (contact, sequence-version) pair from the
// cold-email tool's per-sequence statistics export.
type SequenceStat struct {
	Email       string       `json:"email"`
	ContactedAt *time.Time   `json:"contacted_at"`
	RepliedAt   *time.Time   `json:"replied_at"`
	SenderEmail string       `json:"sender_email"`
	Sequence    SequenceKind `json:"sequence"`
}
