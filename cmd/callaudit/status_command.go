package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"callaudit/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.DaemonStatus
			if err := ctx.getJSON(cmd.Context(), "/api/status", &status); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintf(stdout, "  Running:    %s\n", yesNo(status.Running))
			fmt.Fprintf(stdout, "  PID:        %d\n", status.PID)
			fmt.Fprintf(stdout, "  Database:   %s\n", status.DatabasePath)
			fmt.Fprintf(stdout, "  Lock file:  %s\n", status.LockFilePath)
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Pipeline", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintf(stdout, "  Running:    %s\n", yesNo(status.Pipeline.Running))
			for _, health := range status.Pipeline.WorkerHealth {
				ready := "ready"
				if !health.Ready {
					ready = "not ready"
					if health.Detail != "" {
						ready += ": " + health.Detail
					}
				}
				fmt.Fprintf(stdout, "  %-14s %s\n", health.Name+":", ready)
			}

			if len(status.Workers) > 0 {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Workers", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, worker := range status.Workers {
					fmt.Fprintf(stdout, "  %-14s %s (processed %d, failed %d)\n",
						worker.WorkerType+":", worker.State, worker.ProcessedCount, worker.FailedCount)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of formatted output")
	return cmd
}
