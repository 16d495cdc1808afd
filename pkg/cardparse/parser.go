// Package cardparse splits multi-player and multi-team card fields and pairs
// players with teams by position
package cardparse

import (
	"regexp"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// separatorRe matches "/", ",", "&", ";" and the standalone word "and".
// ";" is the separator MergeDuplicateRows joins merged rows with.
var separatorRe = regexp.MustCompile(`(?i)\s*(?:[/,&;]|\band\b)\s*`)

// ParseMultiEntityField splits a raw player or team field into its ordered,
// trimmed, non-empty parts.
func ParseMultiEntityField(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := separatorRe.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AssignTeams returns the indices of the teams player i of p should be checked
// against when the card lists t teams. needsReview is set when the player's
// position cannot be tied to a single team. The rules are applied in order:
//
//  1. p == t: team i
//  2. t == 1: the only team
//  3. i == 0: the first team
//  4. last player past the end of the team list: the last team
//  5. p > t: every team, flagged for review
//  6. otherwise: team i
func AssignTeams(i, p, t int) (teams []int, needsReview bool) {
	switch {
	case t <= 0 || i < 0 || i >= p:
		return nil, false
	case p == t:
		return []int{i}, false
	case t == 1:
		return []int{0}, false
	case i == 0:
		return []int{0}, false
	case i == p-1 && i >= t:
		return []int{t - 1}, false
	case p > t:
		all := make([]int, t)
		for j := range all {
			all[j] = j
		}
		return all, true
	default:
		return []int{i}, false
	}
}

// BuildPlayerFieldEntries parses the player and team fields of a card and
// pairs every player with its team guesses. One entry is returned per parsed
// player name, in field order.
func BuildPlayerFieldEntries(playerField, teamField string) []models.PlayerFieldEntry {
	players := ParseMultiEntityField(playerField)
	teams := ParseMultiEntityField(teamField)

	entries := make([]models.PlayerFieldEntry, len(players))
	for i, name := range players {
		idx, review := AssignTeams(i, len(players), len(teams))

		entry := models.PlayerFieldEntry{
			Position:    i,
			PlayerName:  name,
			TeamGuesses: make([]string, 0, len(idx)),
			NeedsReview: review,
		}
		for _, j := range idx {
			entry.TeamGuesses = append(entry.TeamGuesses, teams[j])
		}
		if len(entry.TeamGuesses) == 1 {
			team := entry.TeamGuesses[0]
			entry.TeamName = &team
		}
		entries[i] = entry
	}
	return entries
}
