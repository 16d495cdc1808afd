// Package matching resolves normalized card fragments against a reference
// index. Every matcher tries exact normalized equality first and only falls
// back to fuzzy scoring when nothing matched exactly.
package matching

import (
	"github.com/Ramsey-B/fern/pkg/index"
)

// Matcher runs the entity matchers for one job. It only reads the index.
type Matcher struct {
	idx    *index.Index
	policy Policy
	scorer *Scorer
}

// NewMatcher creates a Matcher over idx
func NewMatcher(idx *index.Index, policy Policy) *Matcher {
	return &Matcher{
		idx:    idx,
		policy: policy,
		scorer: NewScorer(),
	}
}

// Policy returns the thresholds the matcher applies
func (m *Matcher) Policy() Policy {
	return m.policy
}

// Index returns the reference index the matcher reads
func (m *Matcher) Index() *index.Index {
	return m.idx
}
