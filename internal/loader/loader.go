// Package loader normalizes the heterogeneous raw exports (cold-email
// contacts, converted clients, Instagram leads, audit requests, thread
// summaries, per-sequence contact stats) into the typed collections the
// attribution pipeline consumes. Parsing is deliberately tolerant:
// malformed dates and amounts degrade to zero values, never to errors,
// so one bad record cannot block a run.
package loader

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unitesync/attribution-engine/internal/domain"
)

// Sources holds every normalized input collection for one run.
type Sources struct {
	Contacts []domain.Contact
	Clients  []domain.Client
	Leads    []domain.Lead
	Audits   []domain.Audit
	Threads  []domain.Thread
	Stats    []domain.SequenceStat
}

// UnwrapResponse accepts either a bare JSON array or an object wrapping
// the array under a "response" key. The two campaign-status feeds have
// shipped both shapes over time.
func UnwrapResponse(data []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parsing array response: %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Response []json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing wrapped response: %w", err)
	}
	return wrapped.Response, nil
}

// ParseSignupDate parses the client signup date in its day/month/year
// text form. Returns the zero time and false when unparseable.
func ParseSignupDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"02/01/2006", "2/1/2006", "02-01-2006"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseFlexibleTime parses the timestamp formats the source exports
// use. Returns nil when the value is empty or unrecognized.
func ParseFlexibleTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

// ParseRevenue parses a decimal revenue amount, tolerating currency
// symbols and thousand separators. Absent or malformed amounts are 0.
func ParseRevenue(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

type rawContact struct {
	Email      string            `json:"email"`
	CustomVars map[string]string `json:"custom_vars"`
	EnrolledAt string            `json:"enrolled_at"`
}

// Contacts decodes the cold-email contact export.
func Contacts(data []byte) ([]domain.Contact, error) {
	items, err := UnwrapResponse(data)
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}

	out := make([]domain.Contact, 0, len(items))
	for _, item := range items {
		var rc rawContact
		if err := json.Unmarshal(item, &rc); err != nil {
			continue
		}
		if rc.Email == "" {
			continue
		}
		out = append(out, domain.Contact{
			Email:      strings.ToLower(rc.Email),
			CustomVars: rc.CustomVars,
			EnrolledAt: ParseFlexibleTime(rc.EnrolledAt),
		})
	}
	return out, nil
}

type rawClient struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	SignupDate      string `json:"signup_date"`
	Revenue         string `json:"revenue"`
	InvitationCode  string `json:"invitation_code"`
	SpotifyArtistID string `json:"spotify_artist_id"`
	Status          string `json:"status"`
}

// Clients decodes the converted-client export.
func Clients(data []byte) ([]domain.Client, error) {
	items, err := UnwrapResponse(data)
	if err != nil {
		return nil, fmt.Errorf("loading clients: %w", err)
	}

	out := make([]domain.Client, 0, len(items))
	for _, item := range items {
		var rc rawClient
		if err := json.Unmarshal(item, &rc); err != nil {
			continue
		}
		if rc.Email == "" {
			continue
		}
		status := domain.ClientStatus(strings.ToLower(rc.Status))
		if status != domain.ClientInactive {
			status = domain.ClientActive
		}
		out = append(out, domain.Client{
			Email:           strings.ToLower(rc.Email),
			Name:            rc.Name,
			SignupDate:      rc.SignupDate,
			Revenue:         ParseRevenue(rc.Revenue),
			InvitationCode:  strings.TrimSpace(rc.InvitationCode),
			SpotifyArtistID: strings.TrimSpace(rc.SpotifyArtistID),
			Status:          status,
		})
	}
	return out, nil
}

type rawLead struct {
	Email            string `json:"email"`
	InstagramURL     string `json:"instagram_url"`
	SpotifyArtistURL string `json:"spotify_artist_url"`
	ReportLink       string `json:"report_link"`
	TrackingLink     string `json:"tracking_link"`
	ContactedAt      string `json:"contacted_at"`
}

// Leads decodes one Instagram campaign-status feed, tagging every row
// with the feed's status.
func Leads(data []byte, status domain.LeadStatus) ([]domain.Lead, error) {
	items, err := UnwrapResponse(data)
	if err != nil {
		return nil, fmt.Errorf("loading leads: %w", err)
	}

	out := make([]domain.Lead, 0, len(items))
	for _, item := range items {
		var rl rawLead
		if err := json.Unmarshal(item, &rl); err != nil {
			continue
		}
		out = append(out, domain.Lead{
			Email:            strings.ToLower(rl.Email),
			InstagramURL:     rl.InstagramURL,
			SpotifyArtistURL: rl.SpotifyArtistURL,
			ReportLink:       rl.ReportLink,
			TrackingLink:     rl.TrackingLink,
			Status:           status,
			ContactedAt:      ParseFlexibleTime(rl.ContactedAt),
		})
	}
	return out, nil
}

type rawAudit struct {
	Email           string `json:"email"`
	SpotifyArtistID string `json:"spotify_artist_id"`
	RequestDate     string `json:"request_date"`
	Source          string `json:"source"`
}

// Audits decodes the inbound royalty-audit requests. Rows without a
// parseable request date are dropped: the audit matcher is entirely
// timing-driven.
func Audits(data []byte) ([]domain.Audit, error) {
	items, err := UnwrapResponse(data)
	if err != nil {
		return nil, fmt.Errorf("loading audits: %w", err)
	}

	out := make([]domain.Audit, 0, len(items))
	for _, item := range items {
		var ra rawAudit
		if err := json.Unmarshal(item, &ra); err != nil {
			continue
		}
		requested := ParseFlexibleTime(ra.RequestDate)
		if requested == nil {
			continue
		}
		out = append(out, domain.Audit{
			Email:           strings.ToLower(ra.Email),
			SpotifyArtistID: strings.TrimSpace(ra.SpotifyArtistID),
			RequestDate:     *requested,
			Source:          ra.Source,
		})
	}
	return out, nil
}

type rawThread struct {
	ID               string `json:"id"`
	ParticipantEmail string `json:"participant_email"`
	MailboxID        string `json:"mailbox_id"`
	SequenceID       string `json:"sequence_id"`
}

// Threads decodes the message-thread summaries.
func Threads(data []byte) ([]domain.Thread, error) {
	items, err := UnwrapResponse(data)
	if err != nil {
		return nil, fmt.Errorf("loading threads: %w", err)
	}

	out := make([]domain.Thread, 0, len(items))
	for _, item := range items {
		var rt rawThread
		if err := json.Unmarshal(item, &rt); err != nil {
			continue
		}
		if rt.ID == "" {
			continue
		}
		out = append(out, domain.Thread{
			ID:               rt.ID,
			ParticipantEmail: strings.ToLower(rt.ParticipantEmail),
			MailboxID:        rt.MailboxID,
			SequenceID:       rt.SequenceID,
		})
	}
	return out, nil
}

type rawStat struct {
	Email       string `json:"email"`
	ContactedAt string `json:"contacted_at"`
	RepliedAt   string `json:"replied_at"`
	SenderEmail string `json:"sender_email"`
}

// SequenceStats decodes one per-sequence contact-statistics export and
// tags every row with the sequence it belongs to.
func SequenceStats(data []byte, kind domain.SequenceKind) ([]domain.SequenceStat, error) {
	items, err := UnwrapResponse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s stats: %w", kind, err)
	}

	out := make([]domain.SequenceStat, 0, len(items))
	for _, item := range items {
		var rs rawStat
		if err := json.Unmarshal(item, &rs); err != nil {
			continue
		}
		if rs.Email == "" {
			continue
		}
		out = append(out, domain.SequenceStat{
			Email:       strings.ToLower(rs.Email),
			ContactedAt: ParseFlexibleTime(rs.ContactedAt),
			RepliedAt:   ParseFlexibleTime(rs.RepliedAt),
			SenderEmail: strings.ToLower(rs.SenderEmail),
			Sequence:    kind,
		})
	}
	return out, nil
}
