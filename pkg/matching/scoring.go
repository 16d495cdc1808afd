package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer compares normalized strings
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Distance returns the Levenshtein edit distance between two strings, in runes
func (s *Scorer) Distance(a, b string) int {
	if a == b {
		return 0
	}
	return levenshtein.ComputeDistance(a, b)
}

// Similarity returns a score in [0,1] for two normalized strings. Equal
// strings score 1.0 and an empty string never matches a non-empty one. When one
// string contains the other the score is the length ratio, otherwise it is
// the Levenshtein similarity 1 - distance/max(len). The result is symmetric.
func (s *Scorer) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return float64(min(la, lb)) / float64(max(la, lb))
	}

	return 1.0 - float64(s.Distance(a, b))/float64(max(la, lb))
}

// Contains reports whether either normalized string contains the other
func (s *Scorer) Contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// lastToken returns the final whitespace-separated token of s
func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
