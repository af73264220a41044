package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ppmsim/config"
	"github.com/kilianp07/ppmsim/core/model"
	"github.com/kilianp07/ppmsim/infra/store/sqlite"
)

var plansSince string

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List production plans active now",
	RunE:  runPlans,
}

func init() {
	plansCmd.Flags().StringVar(&plansSince, "since", "", "list plans starting at or after this date (YYYY-MM-DD) instead")
	rootCmd.AddCommand(plansCmd)
}

func runPlans(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := cmd.Context()
	store, err := sqlite.Open(ctx, cfg.Store, nil)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var plans []model.ActivePlan
	if plansSince == "" {
		plans, err = store.ActivePlans(ctx, time.Now())
	} else {
		loc, _ := time.LoadLocation(cfg.Store.Timezone)
		since, perr := time.ParseInLocation(time.DateOnly, plansSince, loc)
		if perr != nil {
			return fmt.Errorf("invalid --since: %w", perr)
		}
		plans, err = store.Plans(ctx, since)
	}
	if err != nil {
		return err
	}
	return printPlans(cmd, plans)
}

func printPlans(cmd *cobra.Command, plans []model.ActivePlan) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHIERARCHY\tPRODUCT\tSTART\tEND\tQTY")
	for _, p := range plans {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.EntityID, p.ProductName,
			p.Window.Start.Format(time.DateTime), p.Window.End.Format(time.DateTime), p.PlannedQuantity)
	}
	return w.Flush()
}
