// Package index holds the per-job, read-only snapshot of catalog entities the
// matchers resolve against
package index

import (
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// SetEntry is a set with its normalized name
type SetEntry struct {
	models.Set
	Norm string
}

// SeriesEntry is a series with its normalized name
type SeriesEntry struct {
	models.Series
	Norm string
}

// ColorEntry is a color with its normalized name
type ColorEntry struct {
	models.Color
	Norm string
}

// TeamEntry is a team with every searchable field in strict team form
type TeamEntry struct {
	models.Team
	Name         string
	City         string
	Mascot       string
	Abbreviation string
}

// Fields returns the non-empty strict-form fields of the team
func (t TeamEntry) Fields() []string {
	out := make([]string, 0, 4)
	for _, f := range []string{t.Name, t.City, t.Mascot, t.Abbreviation} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// PlayerEntry is a player with normalized name parts
type PlayerEntry struct {
	models.PlayerWithTeams
	First string
	Last  string
	Nick  string
	Full  string
}

// Index is built once per job and never mutated afterwards
type Index struct {
	sets        map[int][]SetEntry
	setsByID    map[int64]SetEntry
	series      map[int64][]SeriesEntry
	colors      []ColorEntry
	teams       []TeamEntry
	players     []PlayerEntry
	playersByID map[int64]int
	aliases     map[string][]int64
}

func newIndex() *Index {
	return &Index{
		sets:        make(map[int][]SetEntry),
		setsByID:    make(map[int64]SetEntry),
		series:      make(map[int64][]SeriesEntry),
		playersByID: make(map[int64]int),
		aliases:     make(map[string][]int64),
	}
}

// SetsForYear returns the sets loaded for year. Year 0 holds the unfiltered load.
func (idx *Index) SetsForYear(year int) []SetEntry {
	return idx.sets[year]
}

// Set looks up a loaded set by id
func (idx *Index) Set(id int64) (SetEntry, bool) {
	s, ok := idx.setsByID[id]
	return s, ok
}

// SeriesForSet returns the series of a set
func (idx *Index) SeriesForSet(setID int64) []SeriesEntry {
	return idx.series[setID]
}

func (idx *Index) Colors() []ColorEntry {
	return idx.colors
}

func (idx *Index) Teams() []TeamEntry {
	return idx.teams
}

func (idx *Index) Players() []PlayerEntry {
	return idx.players
}

// Player looks up a loaded player by id
func (idx *Index) Player(id int64) (PlayerEntry, bool) {
	i, ok := idx.playersByID[id]
	if !ok {
		return PlayerEntry{}, false
	}
	return idx.players[i], true
}

// PlayersByAlias returns the ids of players registered under a normalized alias
func (idx *Index) PlayersByAlias(norm string) []int64 {
	return idx.aliases[norm]
}

func (idx *Index) addSets(year int, sets []models.Set) {
	entries := make([]SetEntry, 0, len(sets))
	for _, s := range sets {
		e := SetEntry{Set: s, Norm: normalizers.Normalize(s.Name)}
		entries = append(entries, e)
		idx.setsByID[s.ID] = e
	}
	idx.sets[year] = entries
}

func (idx *Index) addSeries(setID int64, series []models.Series) {
	entries := make([]SeriesEntry, 0, len(series))
	for _, s := range series {
		entries = append(entries, SeriesEntry{Series: s, Norm: normalizers.Normalize(s.Name)})
	}
	idx.series[setID] = entries
}

func (idx *Index) addColors(colors []models.Color) {
	idx.colors = make([]ColorEntry, 0, len(colors))
	for _, c := range colors {
		idx.colors = append(idx.colors, ColorEntry{Color: c, Norm: normalizers.Normalize(c.Name)})
	}
}

func (idx *Index) addTeams(teams []models.Team) {
	seen := make(map[int64]struct{}, len(teams))
	idx.teams = make([]TeamEntry, 0, len(teams))
	for _, t := range teams {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		idx.teams = append(idx.teams, TeamEntry{
			Team:         t,
			Name:         normalizers.NormalizeTeam(t.Name),
			City:         normalizers.NormalizeTeam(t.City),
			Mascot:       normalizers.NormalizeTeam(t.Mascot),
			Abbreviation: normalizers.NormalizeTeam(t.Abbreviation),
		})
	}
}

// addPlayers groups rows by player id with deduplicated team lists
func (idx *Index) addPlayers(players []models.PlayerWithTeams, aliases []models.PlayerAlias) {
	for _, p := range players {
		if i, ok := idx.playersByID[p.ID]; ok {
			existing := &idx.players[i]
			for _, t := range p.Teams {
				if !existing.HasTeam(t.ID) {
					existing.Teams = append(existing.Teams, t)
				}
			}
			continue
		}

		entry := PlayerEntry{
			PlayerWithTeams: models.PlayerWithTeams{Player: p.Player},
			First:           normalizers.Normalize(p.FirstName),
			Last:            normalizers.Normalize(p.LastName),
			Nick:            normalizers.Normalize(p.NickName),
			Full:            normalizers.Normalize(p.FirstName + " " + p.LastName),
		}
		for _, t := range p.Teams {
			if !entry.HasTeam(t.ID) {
				entry.Teams = append(entry.Teams, t)
			}
		}
		idx.playersByID[p.ID] = len(idx.players)
		idx.players = append(idx.players, entry)
	}

	for _, a := range aliases {
		if _, ok := idx.playersByID[a.PlayerID]; !ok {
			continue
		}
		norm := normalizers.Normalize(a.Alias)
		if norm == "" {
			continue
		}
		idx.aliases[norm] = appendUnique(idx.aliases[norm], a.PlayerID)
	}
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
