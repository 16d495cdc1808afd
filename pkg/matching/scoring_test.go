package matching

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorer_Similarity(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"equal", "mike trout", "mike trout", 1.0},
		{"both empty", "", "", 1.0},
		{"empty left", "", "x", 0.0},
		{"empty right", "angels", "", 0.0},
		{"containment", "angels", "los angeles angels", 6.0 / 18.0},
		{"levenshtein", "trout", "troot", 0.8},
		{"unicode lengths", "acuña", "acuna", 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScorer_SimilarityProperties(t *testing.T) {
	s := NewScorer()
	words := []string{"", "x", "mike trout", "mike", "trout", "aaron judge", "angels", "los angeles angels", "ichiro", "ichiro suzuki"}

	for _, a := range words {
		assert.Equal(t, 1.0, s.Similarity(a, a), a)
		for _, b := range words {
			ab, ba := s.Similarity(a, b), s.Similarity(b, a)
			assert.Equal(t, ab, ba, "%q vs %q", a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
		if a != "" {
			assert.Equal(t, 0.0, s.Similarity("", a))
		}
	}
}

func TestPolicy_Accept(t *testing.T) {
	p := DefaultPolicy()
	s := NewScorer()

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"within edit distance", "mike trout", "mkie trout", true},
		{"high similarity", "christopher sale", "christopher sala", true},
		{"shared surname above surname bar", "matt chapman", "matthew chapman", true},
		{"shared surname below surname bar", "jonathan judge", "aaron judge", false},
		{"unrelated", "mike trout", "aaron judge", false},
		{"empty", "", "trout", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Accept(s, tt.a, tt.b))
		})
	}
}

func TestPolicy_AcceptTeamName(t *testing.T) {
	p := DefaultPolicy()
	assert.True(t, p.AcceptTeamName(0.51))
	assert.False(t, p.AcceptTeamName(0.5))
}

func TestLoadPolicy(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPolicy(), p)
	})

	t.Run("overrides only given fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("min_similarity: 0.9\nmax_fuzzy_candidates: 3\n"), 0o600))

		p, err := LoadPolicy(path)
		require.NoError(t, err)
		assert.Equal(t, 0.9, p.MinSimilarity)
		assert.Equal(t, 3, p.MaxFuzzyCandidates)
		assert.Equal(t, 2, p.MaxEditDistance)
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("min_similarity: 1.5\n"), 0o600))

		_, err := LoadPolicy(path)
		assert.Error(t, err)
	})
}
