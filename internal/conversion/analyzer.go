// Package conversion identifies, for each client with variant-tagged
// emails, the last sequence email sent before signup and marks it as
// the conversion-causing touchpoint.
package conversion

import (
	"math"
	"sort"

	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/loader"
)

// WindowDays limits how far before signup an email can still be
// considered conversion-causing.
const WindowDays = 90

// Annotate returns a new slice in which every client with at least one
// classified variant email inside the window carries a
// ConversionInsight. Clients with no emails in the window, or without a
// parseable signup date, are left unannotated; that is an expected
// outcome, not an error.
func Annotate(clients []domain.AttributedClient) []domain.AttributedClient {
	out := make([]domain.AttributedClient, len(clients))
	copy(out, clients)

	for i := range out {
		out[i].Conversion = analyzeOne(out[i])
	}
	return out
}

func analyzeOne(c domain.AttributedClient) *domain.ConversionInsight {
	if len(c.Variants) == 0 {
		return nil
	}
	signup, ok := loader.ParseSignupDate(c.SignupDate)
	if !ok {
		return nil
	}

	type timed struct {
		match domain.VariantMatch
		days  int
	}
	var inWindow []timed
	for _, v := range c.Variants {
		if v.SentAt == nil {
			continue
		}
		days := int(math.Ceil(signup.Sub(*v.SentAt).Hours() / 24))
		if days < 0 || days > WindowDays {
			continue
		}
		inWindow = append(inWindow, timed{match: v, days: days})
	}
	if len(inWindow) == 0 {
		return nil
	}

	// Most recent email before signup wins.
	sort.SliceStable(inWindow, func(a, b int) bool {
		return inWindow[a].match.SentAt.After(*inWindow[b].match.SentAt)
	})

	best := inWindow[0]
	confidence := 1.0 - float64(best.days)/float64(WindowDays)
	if best.days == 0 {
		confidence = 1.0
	}
	if confidence < 0.1 {
		confidence = 0.1
	}

	return &domain.ConversionInsight{
		VariantID:        best.match.VariantID,
		Label:            best.match.Label,
		EmailID:          best.match.EmailID,
		DaysToConversion: best.days,
		Confidence:       confidence,
	}
}
