package enrichment

import (
	"strings"

	"github.com/unitesync/attribution-engine/internal/config"
	"github.com/unitesync/attribution-engine/internal/domain"
)

// Confidence tiers for variant classification.
const (
	confContentMatch   = 0.8
	confPartialSubject = 0.7
	confDefaultVariant = 0.3
	confGenericStep    = 0.8
)

// GenericStepVariantID labels scheduled emails from a sequence the
// signature tables do not know about.
const GenericStepVariantID = "step_1"

// Classifier assigns campaign variants to scheduled sequence emails
// using the versioned signature tables.
type Classifier struct {
	rules          config.VariantRules
	mainSequenceID string
}

// NewClassifier creates a Classifier for the given rules and main
// campaign sequence ID.
func NewClassifier(rules config.VariantRules, mainSequenceID string) *Classifier {
	return &Classifier{rules: rules, mainSequenceID: mainSequenceID}
}

// Classify determines the campaign variant of one email within a
// thread. Only scheduled (automated-sequence) messages classify; the
// result is nil for manual or inbound messages and for threads that
// carry no sequence ID and match no sub-sequence marker.
func (c *Classifier) Classify(email domain.Email, threadSequenceID string) *domain.VariantMatch {
	if email.Kind() != domain.EmailScheduled {
		return nil
	}

	subject := strings.ToLower(email.Subject)
	body := strings.ToLower(email.Body)

	if c.isSubSequence(subject, body) {
		return c.classifyAgainst(c.rules.SubSequence, email, subject, body, true)
	}

	if threadSequenceID != "" && threadSequenceID == c.mainSequenceID {
		return c.classifyAgainst(c.rules.MainSequence, email, subject, body, false)
	}

	if threadSequenceID != "" {
		return &domain.VariantMatch{
			VariantID:  GenericStepVariantID,
			Label:      "Step 1 (untracked sequence)",
			Confidence: confGenericStep,
			EmailID:    email.ID,
			Subject:    email.Subject,
			SentAt:     email.SentAt,
		}
	}

	return nil
}

func (c *Classifier) isSubSequence(subject, body string) bool {
	for _, marker := range c.rules.SubSequenceMarkers {
		m := strings.ToLower(marker)
		if strings.Contains(body, m) || strings.Contains(subject, m) {
			return true
		}
	}
	return false
}

// classifyAgainst scores an email against one signature table: a full
// signature hit in content or subject scores 0.8, a partial subject hit
// 0.7, and a message that belongs to the sequence but matches no
// signature falls back to the table's first variant at 0.3.
func (c *Classifier) classifyAgainst(variants []config.VariantRule, email domain.Email, subject, body string, sub bool) *domain.VariantMatch {
	if len(variants) == 0 {
		return nil
	}

	match := func(rule config.VariantRule) (float64, bool) {
		sig := strings.ToLower(rule.Signature)
		if sig == "" {
			return 0, false
		}
		if strings.Contains(body, sig) || strings.Contains(subject, sig) {
			return confContentMatch, true
		}
		if partial := signaturePrefix(sig); partial != "" && strings.Contains(subject, partial) {
			return confPartialSubject, true
		}
		return 0, false
	}

	for _, rule := range variants {
		if conf, ok := match(rule); ok {
			return &domain.VariantMatch{
				VariantID:   rule.ID,
				Label:       rule.Label,
				Confidence:  conf,
				EmailID:     email.ID,
				Subject:     email.Subject,
				SentAt:      email.SentAt,
				SubSequence: sub,
			}
		}
	}

	first := variants[0]
	return &domain.VariantMatch{
		VariantID:   first.ID,
		Label:       first.Label,
		Confidence:  confDefaultVariant,
		EmailID:     email.ID,
		Subject:     email.Subject,
		SentAt:      email.SentAt,
		SubSequence: sub,
	}
}

// signaturePrefix returns the first two words of a signature, the
// fragment most likely to survive subject-line truncation.
func signaturePrefix(sig string) string {
	words := strings.Fields(sig)
	if len(words) < 2 {
		return ""
	}
	return words[0] + " " + words[1]
}
