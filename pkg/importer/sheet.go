package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// ErrNoCardNumberColumn is returned when a checklist has no recognizable
// card number column
var ErrNoCardNumberColumn = errors.New("checklist has no card number column")

type column int

const (
	colCardNumber column = iota
	colPlayers
	colTeams
	colSet
	colSeries
	colYear
	colColor
	colPrintRun
	colRookie
	colAutograph
	colRelic
	colNotes
)

// headerAliases maps normalized header text to a column
var headerAliases = map[string]column{
	"card number": colCardNumber, "card #": colCardNumber, "card no": colCardNumber, "number": colCardNumber, "#": colCardNumber, "no": colCardNumber,
	"player": colPlayers, "players": colPlayers, "player name": colPlayers, "player names": colPlayers, "name": colPlayers,
	"team": colTeams, "teams": colTeams, "team name": colTeams, "team names": colTeams,
	"set": colSet, "set name": colSet,
	"series": colSeries, "series name": colSeries, "subset": colSeries, "insert": colSeries,
	"year": colYear, "season": colYear,
	"color": colColor, "parallel": colColor, "colour": colColor,
	"print run": colPrintRun, "serial": colPrintRun, "numbered": colPrintRun, "serial numbered": colPrintRun,
	"rookie": colRookie, "rc": colRookie,
	"auto": colAutograph, "autograph": colAutograph,
	"relic": colRelic, "memorabilia": colRelic, "patch": colRelic,
	"notes": colNotes, "note": colNotes, "comments": colNotes,
}

// SheetDefaults fills values a checklist usually leaves out because the whole
// sheet shares them
type SheetDefaults struct {
	SetName    string
	SeriesName string
	Year       int
	Sheet      string
}

// ReadSheet reads checklist rows from an xlsx workbook. The first row is the
// header. Rows are returned in sheet order with their 1-based row number;
// blank rows are kept so MergeDuplicateRows can drop them.
func ReadSheet(r io.Reader, defaults SheetDefaults) ([]models.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := defaults.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return ParseRows(rows, defaults)
}

// ParseRows maps raw string rows (header first) to import rows
func ParseRows(rows [][]string, defaults SheetDefaults) ([]models.ImportRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	mapping := mapHeaders(rows[0])
	if _, ok := findColumn(mapping, colCardNumber); !ok {
		return nil, ErrNoCardNumberColumn
	}

	out := make([]models.ImportRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		out = append(out, parseRow(rows[i], mapping, defaults, i+1))
	}
	return out, nil
}

func mapHeaders(headers []string) map[int]column {
	mapping := make(map[int]column)
	seen := make(map[column]bool)
	for i, h := range headers {
		col, ok := headerAliases[normalizers.Normalize(h)]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		mapping[i] = col
	}
	return mapping
}

func findColumn(mapping map[int]column, want column) (int, bool) {
	for idx, col := range mapping {
		if col == want {
			return idx, true
		}
	}
	return 0, false
}

func parseRow(row []string, mapping map[int]column, defaults SheetDefaults, rowNo int) models.ImportRow {
	r := models.ImportRow{
		SourceRow: rowNo,
		ProvisionalCard: models.ProvisionalCard{
			SetName:    defaults.SetName,
			SeriesName: defaults.SeriesName,
			Year:       defaults.Year,
		},
	}

	for idx, col := range mapping {
		if idx >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[idx])
		if value == "" {
			continue
		}

		switch col {
		case colCardNumber:
			r.CardNumber = value
		case colPlayers:
			r.PlayerNames = value
		case colTeams:
			r.TeamNames = value
		case colSet:
			r.SetName = value
		case colSeries:
			r.SeriesName = value
		case colYear:
			if y, err := strconv.Atoi(value); err == nil {
				r.Year = y
			}
		case colColor:
			r.ColorName = value
		case colPrintRun:
			if n, ok := parsePrintRun(value); ok {
				r.PrintRun = &n
			}
		case colRookie:
			r.IsRookie = parseFlag(value)
		case colAutograph:
			r.IsAutograph = parseFlag(value)
		case colRelic:
			r.IsRelic = parseFlag(value)
		case colNotes:
			r.Notes = value
		}
	}
	return r
}

// parsePrintRun accepts "99", "/99" and "#/99"
func parsePrintRun(value string) (int, bool) {
	value = strings.TrimLeft(value, "#/ ")
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseFlag(value string) bool {
	switch strings.ToLower(value) {
	case "y", "yes", "x", "true", "1", "rc", "auto", "relic":
		return true
	}
	return false
}
