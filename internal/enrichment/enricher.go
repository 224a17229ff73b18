// Package enrichment links attributed clients to their message
// threads, fetches full thread bodies from the sending platform, and
// classifies each sequence email into a campaign variant.
package enrichment

import (
	"context"
	"fmt"

	"github.com/unitesync/attribution-engine/internal/bison"
	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/index"
	"github.com/unitesync/attribution-engine/internal/pkg/logger"
)

// ThreadFetcher fetches full thread details in one batch.
type ThreadFetcher interface {
	FetchThreadsBatch(ctx context.Context, threads []bison.ThreadRequest) (*bison.BatchResult, error)
}

// Enricher wires thread discovery, the batch fetch, and the variant
// classifier into one stage.
type Enricher struct {
	fetcher    ThreadFetcher
	classifier *Classifier
}

// NewEnricher creates an Enricher.
func NewEnricher(fetcher ThreadFetcher, classifier *Classifier) *Enricher {
	return &Enricher{fetcher: fetcher, classifier: classifier}
}

// Enrich attaches classified variant emails to every client attributed
// to an email-based pipeline (both email methods and audits, since an
// audit may still have originated from an email thread). It returns a
// new slice; input records are not modified. A failed batch fetch
// returns the clients unchanged alongside the error so attribution
// results survive the degradation.
func (e *Enricher) Enrich(ctx context.Context, clients []domain.AttributedClient, idx index.Indexes, threads []domain.Thread) ([]domain.AttributedClient, error) {
	out := make([]domain.AttributedClient, len(clients))
	copy(out, clients)

	byEmail := make(map[string][]domain.Thread)
	mailboxByThread := make(map[string]string)
	sequenceByThread := make(map[string]string)
	for _, t := range threads {
		if t.ParticipantEmail != "" {
			byEmail[t.ParticipantEmail] = append(byEmail[t.ParticipantEmail], t)
		}
		if t.MailboxID != "" {
			mailboxByThread[t.ID] = t.MailboxID
		}
		sequenceByThread[t.ID] = t.SequenceID
	}

	// threadID -> indexes of clients that should receive its variants.
	clientsByThread := make(map[string][]int)
	var requests []bison.ThreadRequest
	requested := make(map[string]bool)

	for i := range out {
		client := &out[i]
		if !eligible(*client) {
			continue
		}

		for _, threadID := range e.candidateThreads(*client, idx, byEmail) {
			mailboxID, ok := mailboxByThread[threadID]
			if !ok {
				logger.Warn("thread has no mailbox mapping, skipping",
					"thread_id", threadID, "client", client.Email)
				continue
			}
			clientsByThread[threadID] = append(clientsByThread[threadID], i)
			if !requested[threadID] {
				requested[threadID] = true
				requests = append(requests, bison.ThreadRequest{ThreadID: threadID, MailboxID: mailboxID})
			}
		}
	}

	if len(requests) == 0 {
		return out, nil
	}

	result, err := e.fetcher.FetchThreadsBatch(ctx, requests)
	if err != nil {
		return out, fmt.Errorf("thread batch fetch: %w", err)
	}
	if result.Failed > 0 {
		for _, te := range result.Errors {
			logger.Warn("thread fetch failed", "thread_id", te.ThreadID, "error", te.Error)
		}
	}

	for _, detail := range result.Results {
		seqID := detail.SequenceID
		if seqID == "" {
			seqID = sequenceByThread[detail.ID]
		}
		for _, email := range detail.Emails {
			match := e.classifier.Classify(email, seqID)
			if match == nil {
				continue
			}
			match.ThreadID = detail.ID
			for _, ci := range clientsByThread[detail.ID] {
				out[ci].Variants = append(out[ci].Variants, *match)
			}
		}
	}

	logger.Info("enrichment complete",
		"threads_requested", len(requests),
		"threads_fetched", result.Fetched,
		"threads_failed", result.Failed,
	)
	return out, nil
}

// eligible reports whether a client's attribution can have originated
// from an email thread.
func eligible(c domain.AttributedClient) bool {
	if c.Attribution == nil {
		return false
	}
	p := c.Attribution.Pipeline
	return p.IsEmail() || p == domain.PipelineAudit
}

// candidateThreads locates threads for one client in priority order:
// direct email match, Spotify-ID chaining through an indexed contact,
// then the winning match's originating contact. Thread IDs are
// deduplicated preserving discovery order.
func (e *Enricher) candidateThreads(c domain.AttributedClient, idx index.Indexes, byEmail map[string][]domain.Thread) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(threads []domain.Thread) {
		for _, t := range threads {
			if !seen[t.ID] {
				seen[t.ID] = true
				ids = append(ids, t.ID)
			}
		}
	}

	add(byEmail[c.Key()])

	if c.SpotifyArtistID != "" {
		for _, touch := range idx.Spotify[c.SpotifyArtistID] {
			if touch.Contact != nil {
				add(byEmail[touch.Contact.Email])
			}
		}
	}

	if d := c.Attribution.Details; d.TouchpointSource == string(domain.SourceContact) {
		for _, touch := range idx.Invitation[d.MatchedKey] {
			if touch.Contact != nil {
				add(byEmail[touch.Contact.Email])
			}
		}
		for _, touch := range idx.Spotify[d.MatchedKey] {
			if touch.Contact != nil {
				add(byEmail[touch.Contact.Email])
			}
		}
	}

	return ids
}
