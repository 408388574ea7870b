package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"callaudit/internal/api"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pipeline summary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats api.Stats
			if err := ctx.getJSON(cmd.Context(), "/api/stats", &stats); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, stats)
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Calls: %d   Warnings: %d   Average score: %.1f\n",
				stats.Total, stats.Warnings, stats.AverageScore)
			fmt.Fprintf(stdout, "Today: %d   Last 7 days: %d\n", stats.CallsToday, stats.CallsThisWeek)
			if line := sentimentLine(stats.Sentiments); line != "" {
				fmt.Fprintf(stdout, "Sentiment: %s\n", line)
			}
			fmt.Fprintln(stdout)

			rows := [][]string{
				statsRow("transcription", stats.Transcription),
				statsRow("analysis", stats.Analysis),
				statsRow("alert", stats.Alert),
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"STAGE", "PENDING", "PROCESSING", "SUCCESS", "FAILED", "NOT NEEDED"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

// sentimentLine renders the sentiment breakdown in a stable order.
func sentimentLine(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	var parts []string
	for _, sentiment := range []string{"positive", "neutral", "negative"} {
		if n, ok := counts[sentiment]; ok {
			parts = append(parts, fmt.Sprintf("%s %d", sentiment, n))
		}
	}
	for sentiment, n := range counts {
		switch sentiment {
		case "positive", "neutral", "negative":
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d", sentiment, n))
	}
	return strings.Join(parts, "   ")
}

func statsRow(stage string, counts api.StageCounts) []string {
	return []string{
		stage,
		strconv.Itoa(counts.Pending),
		strconv.Itoa(counts.Processing),
		strconv.Itoa(counts.Success),
		strconv.Itoa(counts.Failed),
		strconv.Itoa(counts.NotNeeded),
	}
}
