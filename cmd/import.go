package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ppmsim/app"
	"github.com/kilianp07/ppmsim/core/planner"
	"github.com/kilianp07/ppmsim/infra/logger"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run one production plan import and print its summary",
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := interruptible(cmd)
	defer stop()

	svc, err := newService(ctx, app.Options{Mode: app.ModeImport})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	sum, err := svc.ImportOnce(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "inserted: %d\nduplicates: %d\nskipped: %d\n", sum.Inserted, sum.Duplicate, sum.Skipped)
	reasons := make([]string, 0, len(sum.Skips))
	for r := range sum.Skips {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(out, "  %s: %d\n", r, sum.Skips[planner.SkipReason(r)])
	}
	return nil
}
