package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"callaudit/internal/api"
)

func newWorkersCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "workers",
		Short: "Show worker heartbeats and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.WorkersResponse
			if err := ctx.getJSON(cmd.Context(), "/api/workers", &resp); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, resp)
			}

			stdout := cmd.OutOrStdout()
			if len(resp.Workers) == 0 {
				fmt.Fprintln(stdout, "No workers have reported yet.")
				return nil
			}

			rows := make([][]string, 0, len(resp.Workers))
			for _, worker := range resp.Workers {
				heartbeat := worker.LastHeartbeat
				if heartbeat == "" {
					heartbeat = "-"
				}
				rows = append(rows, []string{
					worker.WorkerType,
					worker.State,
					heartbeat,
					strconv.Itoa(worker.ProcessedCount),
					strconv.Itoa(worker.FailedCount),
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"WORKER", "STATE", "LAST HEARTBEAT", "PROCESSED", "FAILED"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
