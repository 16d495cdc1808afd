package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/importer"
	"github.com/Ramsey-B/fern/pkg/jobs"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

type importOptions struct {
	defaults importer.SheetDefaults
	fixture  string
	policy   string
	json     bool
}

func newImportCommand(cmdCtx *commandContext) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <checklist.xlsx>",
		Short: "Resolve a checklist spreadsheet against the catalog and preview the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := importer.ReadSheet(f, opts.defaults)
			if err != nil {
				return err
			}

			cat, closeCatalog, err := openCatalog(ctx, cfg, opts.fixture, logger)
			if err != nil {
				return err
			}
			defer closeCatalog()

			policyPath := opts.policy
			if policyPath == "" {
				policyPath = cfg.MatchPolicyPath
			}
			policy, err := matching.LoadPolicy(policyPath)
			if err != nil {
				return err
			}

			engine := resolution.NewEngine(logger, cat, policy, cfg.Orgs())
			runner := jobs.NewRunner(logger, engine, jobs.NewMemoryStore(), jobs.RunnerOptions{
				ProgressInterval: cfg.JobProgressInterval,
			})

			jobID, err := runner.SubmitRows(ctx, rows)
			if err != nil {
				return err
			}
			records, err := runner.Wait(ctx, jobID)
			if err != nil {
				return err
			}
			merged, _ := runner.MergedRows(jobID)

			out := cmd.OutOrStdout()
			if opts.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			fmt.Fprintln(out, renderImport(merged, records))
			fmt.Fprintln(out, summarizeImport(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.defaults.SetName, "set", "", "Set name for rows that leave it blank")
	cmd.Flags().StringVar(&opts.defaults.SeriesName, "series", "", "Series name for rows that leave it blank")
	cmd.Flags().IntVar(&opts.defaults.Year, "year", 0, "Release year for rows that leave it blank")
	cmd.Flags().StringVar(&opts.defaults.Sheet, "sheet", "", "Worksheet name (defaults to the first sheet)")
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "Resolve against a YAML catalog fixture instead of Postgres")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "Match policy YAML (defaults to MATCH_POLICY_PATH)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print resolution records as JSON")

	return cmd
}

func renderImport(rows []models.ImportRow, records []resolution.ResolutionRecord) string {
	headers := []string{"Row", "Card #", "Set", "Series", "Players", "Outcome", "Needs"}
	table := make([][]string, 0, len(records))
	for i, rec := range records {
		row := ""
		if i < len(rows) {
			row = strconv.Itoa(rows[i].SourceRow)
		}
		table = append(table, []string{
			row,
			rec.Card.CardNumber,
			candidateName(rec.SelectedSet),
			candidateName(rec.SelectedSeries),
			playerSummary(rec.Players),
			rec.Outcome(),
			strings.Join(missing(rec), ", "),
		})
	}
	return renderTable(headers, table, []columnAlignment{alignRight, alignRight})
}

func candidateName[T any](c *matching.Candidate[T]) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%.2f)", c.Name, c.Confidence)
}

func playerSummary(players []resolution.PlayerResolution) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		if p.Selected != nil {
			parts = append(parts, candidateName(p.Selected))
			continue
		}
		parts = append(parts, "?"+p.Entry.PlayerName)
	}
	return strings.Join(parts, "; ")
}

func missing(rec resolution.ResolutionRecord) []string {
	var needs []string
	for _, flag := range []struct {
		set  bool
		name string
	}{
		{rec.RequiresNewSet, "set"},
		{rec.RequiresNewSeries, "series"},
		{rec.RequiresNewColor, "color"},
		{rec.RequiresNewTeam, "team"},
		{rec.RequiresNewPlayer, "player"},
		{rec.NeedsReview, "review"},
	} {
		if flag.set {
			needs = append(needs, flag.name)
		}
	}
	return needs
}

func summarizeImport(records []resolution.ResolutionRecord) string {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Outcome()]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return fmt.Sprintf("%d cards: %s", len(records), strings.Join(parts, " "))
}
