package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/ppmsim/app"
)

var dryRun bool

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the telemetry simulation only",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd, app.Options{Mode: app.ModeSimulate, DryRun: dryRun})
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log telemetry instead of publishing it")
	rootCmd.AddCommand(simulateCmd)
}
