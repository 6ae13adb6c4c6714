package main

import (
	"github.com/spf13/cobra"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "clover",
	Short: "Blocking workload and field-weight estimation for patient matching",
	Long: `clover stores patient matching configurations, predicts how many candidate pairs
their blocking fields produce and refits their per-field m/u weights with
Expectation Maximization.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")
}
