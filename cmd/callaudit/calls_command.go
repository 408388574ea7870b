package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"callaudit/internal/api"
)

func newCallsCommand(ctx *commandContext) *cobra.Command {
	var (
		search        string
		transcription string
		analysis      string
		alertStatus   string
		sentiment     string
		warningsOnly  bool
		limit         int
		offset        int
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List processed and in-flight calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			setIfPresent(query, "search", search)
			setIfPresent(query, "transcription_status", transcription)
			setIfPresent(query, "analysis_status", analysis)
			setIfPresent(query, "alert_status", alertStatus)
			setIfPresent(query, "sentiment", sentiment)
			if warningsOnly {
				query.Set("warnings_only", "1")
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}

			var page api.CallListResponse
			if err := ctx.getJSON(cmd.Context(), "/api/calls?"+query.Encode(), &page); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, page)
			}

			stdout := cmd.OutOrStdout()
			if len(page.Calls) == 0 {
				fmt.Fprintln(stdout, "No calls match the given filters.")
				return nil
			}

			colorize := shouldColorize(stdout)
			rows := make([][]string, 0, len(page.Calls))
			for _, call := range page.Calls {
				rows = append(rows, []string{
					shortID(call.ID),
					call.CallID,
					call.AgentName,
					formatDuration(call.DurationSeconds),
					colorStatus(call.Transcription.Status, colorize),
					colorStatus(call.Analysis.Status, colorize),
					colorStatus(call.Alert.Status, colorize),
					formatScore(call.Score),
					call.Sentiment,
					yesNo(call.HasWarning),
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"ID", "CALL", "AGENT", "LEN", "TRANSCRIBE", "ANALYZE", "ALERT", "SCORE", "SENTIMENT", "WARN"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			shown := len(page.Calls)
			if page.Total > shown {
				fmt.Fprintf(stdout, "Showing %d of %d calls (use --limit/--offset to page)\n", shown, page.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Match against call id, numbers, agent, or summary")
	cmd.Flags().StringVar(&transcription, "transcription", "", "Filter by transcription status")
	cmd.Flags().StringVar(&analysis, "analysis", "", "Filter by analysis status")
	cmd.Flags().StringVar(&alertStatus, "alert", "", "Filter by alert status")
	cmd.Flags().StringVar(&sentiment, "sentiment", "", "Filter by customer sentiment")
	cmd.Flags().BoolVar(&warningsOnly, "warnings", false, "Show only calls that raised a warning")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum calls to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Calls to skip before listing")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")

	return cmd
}

func setIfPresent(query url.Values, key, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		query.Set(key, trimmed)
	}
}
