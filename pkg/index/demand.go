package index

import (
	"slices"
	"strings"

	"github.com/Ramsey-B/fern/pkg/cardparse"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// SetKey is a normalized set name scoped to a year. Year 0 means the card
// carried no year and any year is acceptable.
type SetKey struct {
	Name string
	Year int
}

// Demand is every distinct normalized value a batch needs resolved. The index
// is built from a Demand so catalog traffic scales with distinct values, not
// rows.
type Demand struct {
	Sets    map[SetKey]struct{}
	Series  map[string]struct{}
	Colors  map[string]struct{}
	Teams   map[string]struct{}
	Players map[string]struct{}
}

// NewDemand returns an empty Demand
func NewDemand() *Demand {
	return &Demand{
		Sets:    make(map[SetKey]struct{}),
		Series:  make(map[string]struct{}),
		Colors:  make(map[string]struct{}),
		Teams:   make(map[string]struct{}),
		Players: make(map[string]struct{}),
	}
}

// DemandFor collects the demand of a whole batch
func DemandFor(cards []models.ProvisionalCard) *Demand {
	d := NewDemand()
	for _, c := range cards {
		d.Add(c)
	}
	return d
}

// Add records every value card needs resolved
func (d *Demand) Add(card models.ProvisionalCard) {
	if name := normalizers.Normalize(card.SetName); name != "" {
		d.Sets[SetKey{Name: name, Year: card.Year}] = struct{}{}
	}
	d.Series[normalizers.Normalize(card.SeriesName)] = struct{}{}
	if color := normalizers.Normalize(card.ColorName); color != "" {
		d.Colors[color] = struct{}{}
	}
	for _, team := range cardparse.ParseMultiEntityField(card.TeamNames) {
		if n := normalizers.Normalize(team); n != "" {
			d.Teams[n] = struct{}{}
		}
	}
	for _, player := range cardparse.ParseMultiEntityField(card.PlayerNames) {
		if n := normalizers.Normalize(player); n != "" {
			d.Players[n] = struct{}{}
		}
	}
}

// Years returns the distinct set years, sorted. 0 is included when any card
// carried no year.
func (d *Demand) Years() []int {
	seen := make(map[int]struct{})
	for k := range d.Sets {
		seen[k.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}

// TeamCandidates returns the search terms for the batch team lookup: every
// demanded team name in its strict form plus each of its words.
func (d *Demand) TeamCandidates() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for name := range d.Teams {
		add(normalizers.NormalizeTeam(name))
		for _, word := range strings.Fields(name) {
			add(normalizers.NormalizeTeam(word))
		}
	}
	slices.Sort(out)
	return out
}

// Empty reports whether nothing needs resolving
func (d *Demand) Empty() bool {
	return len(d.Sets) == 0 && len(d.Colors) == 0 && len(d.Teams) == 0 && len(d.Players) == 0
}
