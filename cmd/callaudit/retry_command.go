package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"callaudit/internal/api"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var stage string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "retry <call-id>",
		Short: "Requeue a failed stage for a call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("call id is required")
			}

			path := "/api/calls/" + url.PathEscape(id) + "/retry"
			if trimmed := strings.TrimSpace(stage); trimmed != "" {
				path += "?stage=" + url.QueryEscape(trimmed)
			}

			var result api.RetryResult
			if err := ctx.postJSON(cmd.Context(), path, &result); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, result)
			}

			stdout := cmd.OutOrStdout()
			switch result.Outcome {
			case api.RetryDone:
				fmt.Fprintf(stdout, "Requeued %s stage for %s\n", result.Stage, id)
			case api.RetryRescheduled:
				fmt.Fprintf(stdout, "Cleared backoff on %s stage for %s; next poll will pick it up\n", result.Stage, id)
			case api.RetryNotRetryable:
				fmt.Fprintf(stdout, "Nothing to retry for %s; no stage is failed or backing off\n", id)
			default:
				fmt.Fprintf(stdout, "Retry outcome: %s\n", result.Outcome)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Limit the retry to one stage (transcription, analysis, alert)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a message")
	return cmd
}
