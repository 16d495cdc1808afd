// Package importer prepares bulk-import rows for resolution: reading
// checklist spreadsheets and merging multi-row card definitions
package importer

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/cardparse"
	"github.com/Ramsey-B/fern/pkg/models"
)

// mergeSeparator joins merged player, team and note values. cardparse splits
// on it.
const mergeSeparator = "; "

// MergeDuplicateRows folds consecutive rows that share a card number into one
// multi-player card. rows must be in original file order: only a row's
// immediate predecessor is considered, so a number reused later in the sheet
// starts a new card. Rows with a blank card number are dropped first. Player
// names are joined, team names are unioned case-insensitively, flags are
// OR'd and notes are appended only when new. Sort order is renumbered from 1.
// The input slice is not modified.
func MergeDuplicateRows(rows []models.ImportRow) []models.ImportRow {
	out := make([]models.ImportRow, 0, len(rows))
	for _, row := range rows {
		if row.IsBlank() {
			continue
		}
		row.CardNumber = strings.TrimSpace(row.CardNumber)

		if n := len(out); n > 0 && strings.EqualFold(out[n-1].CardNumber, row.CardNumber) {
			mergeInto(&out[n-1], row)
			continue
		}
		out = append(out, row)
	}

	for i := range out {
		out[i].SortOrder = i + 1
	}
	return out
}

func mergeInto(dst *models.ImportRow, src models.ImportRow) {
	dst.PlayerNames = joinNonEmpty(dst.PlayerNames, src.PlayerNames)
	dst.TeamNames = unionTeams(dst.TeamNames, src.TeamNames)
	dst.IsRookie = dst.IsRookie || src.IsRookie
	dst.IsAutograph = dst.IsAutograph || src.IsAutograph
	dst.IsRelic = dst.IsRelic || src.IsRelic
	dst.Notes = appendNote(dst.Notes, src.Notes)
	if dst.PrintRun == nil {
		dst.PrintRun = src.PrintRun
	}
	if strings.TrimSpace(dst.ColorName) == "" {
		dst.ColorName = src.ColorName
	}
}

func joinNonEmpty(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + mergeSeparator + b
	}
}

func unionTeams(existing, incoming string) string {
	teams := cardparse.ParseMultiEntityField(existing)
	for _, t := range cardparse.ParseMultiEntityField(incoming) {
		dup := false
		for _, have := range teams {
			if strings.EqualFold(have, t) {
				dup = true
				break
			}
		}
		if !dup {
			teams = append(teams, t)
		}
	}
	return strings.Join(teams, mergeSeparator)
}

func appendNote(existing, incoming string) string {
	existing, incoming = strings.TrimSpace(existing), strings.TrimSpace(incoming)
	if incoming == "" {
		return existing
	}
	if existing == "" {
		return incoming
	}
	for _, note := range strings.Split(existing, strings.TrimSpace(mergeSeparator)) {
		if strings.EqualFold(strings.TrimSpace(note), incoming) {
			return existing
		}
	}
	return existing + mergeSeparator + incoming
}

// Cards strips row numbers, for callers that only need the card descriptions
func Cards(rows []models.ImportRow) []models.ProvisionalCard {
	out := make([]models.ProvisionalCard, len(rows))
	for i, r := range rows {
		out[i] = r.ProvisionalCard
	}
	return out
}
