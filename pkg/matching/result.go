package matching

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Candidate is one catalog entity proposed for an input fragment
type Candidate[T any] struct {
	Type       models.EntityType `json:"type"`
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Confidence float64           `json:"confidence"`
	Entity     T                 `json:"entity"`
}

// MatchResult holds exact matches and ranked fuzzy matches, best first.
// Exact matches score 1.0 except a player whose teams do not match the card.
type MatchResult[T any] struct {
	Exact []Candidate[T] `json:"exact"`
	Fuzzy []Candidate[T] `json:"fuzzy"`
}

// Empty reports whether nothing matched
func (r MatchResult[T]) Empty() bool {
	return len(r.Exact) == 0 && len(r.Fuzzy) == 0
}

// Best returns the first exact match, else the top fuzzy candidate
func (r MatchResult[T]) Best() (Candidate[T], bool) {
	if len(r.Exact) > 0 {
		return r.Exact[0], true
	}
	if len(r.Fuzzy) > 0 {
		return r.Fuzzy[0], true
	}
	return Candidate[T]{}, false
}

// All returns exact then fuzzy candidates
func (r MatchResult[T]) All() []Candidate[T] {
	out := make([]Candidate[T], 0, len(r.Exact)+len(r.Fuzzy))
	out = append(out, r.Exact...)
	return append(out, r.Fuzzy...)
}

// Len is the total number of candidates
func (r MatchResult[T]) Len() int {
	return len(r.Exact) + len(r.Fuzzy)
}

// MaxConfidence returns the highest confidence of any candidate, 0 when empty
func (r MatchResult[T]) MaxConfidence() float64 {
	best := 0.0
	for _, c := range r.All() {
		best = max(best, c.Confidence)
	}
	return best
}

// rank orders candidates by confidence descending, then shorter names first,
// then id so the order is deterministic
func rank[T any](cands []Candidate[T]) {
	slices.SortStableFunc(cands, func(a, b Candidate[T]) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		if c := cmp.Compare(utf8.RuneCountInString(a.Name), utf8.RuneCountInString(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func capCandidates[T any](cands []Candidate[T], n int) []Candidate[T] {
	if n >= 0 && len(cands) > n {
		return cands[:n]
	}
	return cands
}

func containsID[T any](cands []Candidate[T], id int64) bool {
	for _, c := range cands {
		if c.ID == id {
			return true
		}
	}
	return false
}
