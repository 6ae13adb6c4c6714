package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute the workload estimate of every stale configuration",
	Long: `Compare the current patient count with the count recorded on each configuration
and recompute the pair estimate of every configuration that drifted by more than
ESTIMATION_STALE_FRACTION. Intended to run from cron.

Examples:
  clover refresh
  clover refresh --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd.Context(), appOptions{service: true, cache: true, events: true})
		if err != nil {
			return err
		}
		defer a.close()

		results, err := a.service.RefreshAll(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		out := cmd.OutOrStdout()
		recomputed := 0
		for _, r := range results {
			state := "fresh"
			if r.Recomputed {
				state = "recomputed"
				recomputed++
			}
			fmt.Fprintf(out, "%-36s  %-10s  drift=%d\n", r.ConfigurationID, state, r.Drift)
		}
		fmt.Fprintf(out, "%d of %d configurations recomputed\n", recomputed, len(results))
		return nil
	},
}

func init() {
	refreshCmd.Flags().Bool("json", false, "print the results as JSON")
	rootCmd.AddCommand(refreshCmd)
}
