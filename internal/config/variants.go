package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VariantRule maps one campaign variant to the signature text that
// identifies it in a sent email.
type VariantRule struct {
	ID        string `yaml:"id" json:"id"`
	Label     string `yaml:"label" json:"label"`
	Signature string `yaml:"signature" json:"signature"`
}

// VariantRules is the versioned signature table driving the variant
// classifier. The first rule of each list doubles as the default when a
// message belongs to the sequence but matches no signature.
type VariantRules struct {
	// MainSequence holds the four A/B variants of the current main
	// campaign sequence, keyed by subject-line signature text.
	MainSequence []VariantRule `yaml:"main_sequence"`
	// SubSequenceMarkers are the phrases that mark a message as part
	// of the positive-reply sub-sequence.
	SubSequenceMarkers []string `yaml:"sub_sequence_markers"`
	// SubSequence holds the two positive-reply variants, keyed by
	// signature phrase.
	SubSequence []VariantRule `yaml:"sub_sequence"`
}

// DefaultVariantRules returns the compiled-in signature tables matching
// the campaign copy in production at the time of writing.
func DefaultVariantRules() VariantRules {
	return VariantRules{
		MainSequence: []VariantRule{
			{ID: "main_v1", Label: "Unclaimed royalties direct", Signature: "unclaimed publishing royalties"},
			{ID: "main_v2", Label: "Missing money question", Signature: "are you leaving money"},
			{ID: "main_v3", Label: "Free royalty report", Signature: "free royalty report"},
			{ID: "main_v4", Label: "Catalog scan follow-up", Signature: "scanned your catalog"},
		},
		SubSequenceMarkers: []string{
			"glad you're interested",
			"next step to recover",
		},
		SubSequence: []VariantRule{
			{ID: "positive_v1", Label: "Positive reply onboarding", Signature: "glad you're interested"},
			{ID: "positive_v2", Label: "Positive reply audit offer", Signature: "next step to recover"},
		},
	}
}

// LoadVariantRules reads a signature table from a YAML file, falling
// back to the defaults when path is empty. A file that parses but names
// no main-sequence variants is rejected rather than silently disabling
// classification.
func LoadVariantRules(path string) (VariantRules, error) {
	if path == "" {
		return DefaultVariantRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return VariantRules{}, fmt.Errorf("reading variant rules: %w", err)
	}

	var rules VariantRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return VariantRules{}, fmt.Errorf("parsing variant rules: %w", err)
	}
	if len(rules.MainSequence) == 0 || len(rules.SubSequence) == 0 {
		return VariantRules{}, fmt.Errorf("variant rules %s: empty sequence tables", path)
	}
	return rules, nil
}
