package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"callaudit/internal/api"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var withTranscript bool

	cmd := &cobra.Command{
		Use:   "show <call-id>",
		Short: "Show one call in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("call id is required")
			}

			var resp api.CallResponse
			if err := ctx.getJSON(cmd.Context(), "/api/calls/"+url.PathEscape(id), &resp); err != nil {
				return err
			}
			call := resp.Call

			if jsonOut {
				return writeJSON(cmd, resp)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Call "+call.CallID, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintf(stdout, "  Record:     %s\n", call.ID)
			fmt.Fprintf(stdout, "  Agent:      %s\n", orDash(call.AgentName))
			fmt.Fprintf(stdout, "  Department: %s\n", orDash(call.Department))
			fmt.Fprintf(stdout, "  From:       %s\n", orDash(call.FromNumber))
			fmt.Fprintf(stdout, "  To:         %s\n", orDash(call.ToNumber))
			fmt.Fprintf(stdout, "  Direction:  %s\n", orDash(call.Direction))
			fmt.Fprintf(stdout, "  Time:       %s\n", orDash(call.CallTime))
			fmt.Fprintf(stdout, "  Duration:   %s\n", formatDuration(call.DurationSeconds))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Pipeline", colorize) {
				fmt.Fprintln(stdout, line)
			}
			printStage(stdout, "transcription", call.Transcription, colorize)
			printStage(stdout, "analysis", call.Analysis, colorize)
			printStage(stdout, "alert", call.Alert, colorize)
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Scoring", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintf(stdout, "  Score:      %s\n", formatScore(call.Score))
			fmt.Fprintf(stdout, "  Sentiment:  %s\n", orDash(call.Sentiment))
			fmt.Fprintf(stdout, "  Warning:    %s\n", yesNo(call.HasWarning))
			if len(call.WarningReasons) > 0 {
				fmt.Fprintf(stdout, "  Reasons:    %s\n", strings.Join(call.WarningReasons, "; "))
			}
			if call.AlertSentAt != "" {
				fmt.Fprintf(stdout, "  Alerted:    %s\n", call.AlertSentAt)
			}
			if call.Summary != "" {
				fmt.Fprintf(stdout, "  Summary:    %s\n", call.Summary)
			}

			if withTranscript && call.Transcript != "" {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Transcript", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, call.Transcript)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of formatted output")
	cmd.Flags().BoolVar(&withTranscript, "transcript", false, "Include the full transcript")
	return cmd
}

func printStage(stdout io.Writer, name string, state api.StageState, colorize bool) {
	detail := ""
	switch {
	case state.Error != "":
		detail = " " + state.Error
	case state.CompletedAt != "":
		detail = " at " + state.CompletedAt
	case state.NextAttemptAt != "":
		detail = " next attempt " + state.NextAttemptAt
	}
	if state.Retries > 0 {
		detail += fmt.Sprintf(" (retries: %d)", state.Retries)
	}
	fmt.Fprintf(stdout, "  %-14s %s%s\n", name+":", colorStatus(state.Status, colorize), detail)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
