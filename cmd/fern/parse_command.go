package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/cardparse"
	"github.com/Ramsey-B/fern/pkg/models"
)

func newParseCommand() *cobra.Command {
	var players, teams string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Preview how a player field and team field split and pair up",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(players) == "" {
				return fmt.Errorf("--players is required")
			}
			entries := cardparse.BuildPlayerFieldEntries(players, teams)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			fmt.Fprintln(out, renderEntries(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&players, "players", "", "Player field, e.g. \"Mike Trout / Shohei Ohtani\"")
	cmd.Flags().StringVar(&teams, "teams", "", "Team field, e.g. \"Angels\"")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")

	return cmd
}

func renderEntries(entries []models.PlayerFieldEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		team := "-"
		if e.TeamName != nil {
			team = *e.TeamName
		}
		review := ""
		if e.NeedsReview {
			review = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Position),
			e.PlayerName,
			team,
			strings.Join(e.TeamGuesses, ", "),
			review,
		})
	}
	return renderTable([]string{"#", "Player", "Team", "Team Guesses", "Review"}, rows, []columnAlignment{alignRight})
}
