package matching

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds every acceptance threshold used by the matchers. The defaults
// were tuned by hand against real checklists and have not been calibrated
// against a labeled dataset.
type Policy struct {
	MaxEditDistance       int     `yaml:"max_edit_distance"`
	MinSimilarity         float64 `yaml:"min_similarity"`
	SurnameMinSimilarity  float64 `yaml:"surname_min_similarity"`
	TeamNameMinSimilarity float64 `yaml:"team_name_min_similarity"`
	TeamAcceptThreshold   float64 `yaml:"team_accept_threshold"`
	TeamContextSimilarity float64 `yaml:"team_context_similarity"`
	SetMinSimilarity      float64 `yaml:"set_min_similarity"`
	SeriesMinSimilarity   float64 `yaml:"series_min_similarity"`
	ColorMinSimilarity    float64 `yaml:"color_min_similarity"`

	AutoAcceptConfidence   float64 `yaml:"auto_accept_confidence"`
	SingleTokenConfidence  float64 `yaml:"single_token_confidence"`
	TeamMismatchConfidence float64 `yaml:"team_mismatch_confidence"`

	MaxFuzzyCandidates   int `yaml:"max_fuzzy_candidates"`
	PromotedCandidateCap int `yaml:"promoted_candidate_cap"`
}

// DefaultPolicy returns the production thresholds
func DefaultPolicy() Policy {
	return Policy{
		MaxEditDistance:        2,
		MinSimilarity:          0.85,
		SurnameMinSimilarity:   0.70,
		TeamNameMinSimilarity:  0.5,
		TeamAcceptThreshold:    0.6,
		TeamContextSimilarity:  0.7,
		SetMinSimilarity:       0.7,
		SeriesMinSimilarity:    0.7,
		ColorMinSimilarity:     0.5,
		AutoAcceptConfidence:   0.95,
		SingleTokenConfidence:  0.95,
		TeamMismatchConfidence: 0.8,
		MaxFuzzyCandidates:     5,
		PromotedCandidateCap:   2,
	}
}

// LoadPolicy reads a YAML policy file. Fields absent from the file keep their
// default values.
func LoadPolicy(filePath string) (Policy, error) {
	policy := DefaultPolicy()
	if filePath == "" {
		return policy, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return policy, fmt.Errorf("failed to read match policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("failed to parse match policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return policy, err
	}
	return policy, nil
}

// Validate rejects thresholds outside their meaningful range
func (p Policy) Validate() error {
	ratios := map[string]float64{
		"min_similarity":           p.MinSimilarity,
		"surname_min_similarity":   p.SurnameMinSimilarity,
		"team_name_min_similarity": p.TeamNameMinSimilarity,
		"team_accept_threshold":    p.TeamAcceptThreshold,
		"team_context_similarity":  p.TeamContextSimilarity,
		"set_min_similarity":       p.SetMinSimilarity,
		"series_min_similarity":    p.SeriesMinSimilarity,
		"color_min_similarity":     p.ColorMinSimilarity,
		"auto_accept_confidence":   p.AutoAcceptConfidence,
		"single_token_confidence":  p.SingleTokenConfidence,
		"team_mismatch_confidence": p.TeamMismatchConfidence,
	}
	for name, v := range ratios {
		if v < 0 || v > 1 {
			return fmt.Errorf("invalid match policy: %s must be between 0 and 1, got %v", name, v)
		}
	}
	if p.MaxEditDistance < 0 {
		return fmt.Errorf("invalid match policy: max_edit_distance must not be negative")
	}
	if p.MaxFuzzyCandidates < 1 || p.PromotedCandidateCap < 0 {
		return fmt.Errorf("invalid match policy: candidate caps must be positive")
	}
	return nil
}

// Accept decides whether two normalized names are close enough to be the
// same entity: within MaxEditDistance edits, above MinSimilarity, or sharing
// the last token and above SurnameMinSimilarity.
func (p Policy) Accept(s *Scorer, a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if s.Distance(a, b) <= p.MaxEditDistance {
		return true
	}
	sim := s.Similarity(a, b)
	if sim > p.MinSimilarity {
		return true
	}
	return lastToken(a) == lastToken(b) && sim > p.SurnameMinSimilarity
}

// AcceptTeamName is the looser team nickname acceptance
func (p Policy) AcceptTeamName(similarity float64) bool {
	return similarity > p.TeamNameMinSimilarity
}
