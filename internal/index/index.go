// Package index builds the three cross-source touchpoint indexes
// (invitation code, Spotify artist ID, email) the waterfall engine
// matches against. Indexes are derived, disposable structures rebuilt
// on every run; they hold references into the loaded sources and own no
// data of their own.
package index

import (
	"strings"
	"time"

	"github.com/unitesync/attribution-engine/internal/config"
	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/extract"
	"github.com/unitesync/attribution-engine/internal/loader"
)

// Indexes maps normalized keys to every touchpoint carrying that key.
// Append order follows source processing order and is not significant.
type Indexes struct {
	Invitation map[string][]domain.Touchpoint
	Spotify    map[string][]domain.Touchpoint
	Email      map[string][]domain.Touchpoint
}

// Builder constructs the indexes for one run.
type Builder struct {
	cutoff          time.Time
	newMethodDomain string
}

// NewBuilder creates a Builder from the engine configuration.
func NewBuilder(cfg config.EngineConfig) *Builder {
	return &Builder{
		cutoff:          cfg.CutoffDate(),
		newMethodDomain: strings.ToLower(cfg.NewMethodSenderDomain),
	}
}

// EmailPipeline classifies a cold-email touchpoint into the old or new
// method. Rows contacted on or after the cutoff belong to the new
// method; rows without a date fall back to sender-domain matching.
func (b *Builder) EmailPipeline(contactedAt *time.Time, senderEmail string) domain.Pipeline {
	if contactedAt != nil {
		if !contactedAt.Before(b.cutoff) {
			return domain.PipelineEmailNew
		}
		return domain.PipelineEmailOld
	}
	if b.newMethodDomain != "" && strings.Contains(strings.ToLower(senderEmail), b.newMethodDomain) {
		return domain.PipelineEmailNew
	}
	return domain.PipelineEmailOld
}

// Build scans every source collection and populates the three indexes.
// This must run to completion before attribution begins.
func (b *Builder) Build(src loader.Sources) Indexes {
	idx := Indexes{
		Invitation: make(map[string][]domain.Touchpoint),
		Spotify:    make(map[string][]domain.Touchpoint),
		Email:      make(map[string][]domain.Touchpoint),
	}

	for i := range src.Contacts {
		contact := &src.Contacts[i]
		pipeline := b.EmailPipeline(contact.EnrolledAt, "")

		if code := extract.InvitationCode(contact.ReportLink()); code != "" {
			idx.Invitation[code] = append(idx.Invitation[code], domain.Touchpoint{
				Source:      domain.SourceContact,
				Pipeline:    pipeline,
				Email:       contact.Email,
				ContactedAt: contact.EnrolledAt,
				Contact:     contact,
			})
		}

		if id := contactSpotifyID(*contact); id != "" {
			idx.Spotify[id] = append(idx.Spotify[id], domain.Touchpoint{
				Source:      domain.SourceContact,
				Pipeline:    pipeline,
				Email:       contact.Email,
				ContactedAt: contact.EnrolledAt,
				Contact:     contact,
			})
		}
	}

	for i := range src.Leads {
		lead := &src.Leads[i]
		touch := domain.Touchpoint{
			Source:      domain.SourceLead,
			Pipeline:    domain.PipelineInstagram,
			Email:       lead.Email,
			ContactedAt: lead.ContactedAt,
			Lead:        lead,
		}

		// First candidate URL carrying a code wins per lead.
		for _, candidate := range []string{lead.ReportLink, lead.TrackingLink} {
			if code := extract.InvitationCode(candidate); code != "" {
				idx.Invitation[code] = append(idx.Invitation[code], touch)
				break
			}
		}

		if id := extract.SpotifyArtistID(lead.SpotifyArtistURL); id != "" {
			idx.Spotify[id] = append(idx.Spotify[id], touch)
		}
	}

	for i := range src.Audits {
		audit := &src.Audits[i]
		if audit.SpotifyArtistID == "" {
			continue
		}
		requested := audit.RequestDate
		idx.Spotify[audit.SpotifyArtistID] = append(idx.Spotify[audit.SpotifyArtistID], domain.Touchpoint{
			Source:      domain.SourceAuditRecord,
			Pipeline:    domain.PipelineAudit,
			Email:       audit.Email,
			ContactedAt: &requested,
			Audit:       audit,
		})
	}

	for i := range src.Stats {
		stat := &src.Stats[i]
		key := strings.ToLower(stat.Email)
		idx.Email[key] = append(idx.Email[key], domain.Touchpoint{
			Source:      domain.SourceContactStats,
			Pipeline:    b.EmailPipeline(stat.ContactedAt, stat.SenderEmail),
			Email:       key,
			ContactedAt: stat.ContactedAt,
		})
	}

	return idx
}

// contactSpotifyID pulls a Spotify artist ID from a contact's custom
// variables, direct ID fields before URL-embedded ones.
func contactSpotifyID(c domain.Contact) string {
	if id := strings.TrimSpace(c.Var(domain.VarSpotifyID)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.Var(domain.VarArtistSpotify)); id != "" {
		return id
	}
	return extract.SpotifyArtistID(c.Var(domain.VarSpotifyURL))
}
