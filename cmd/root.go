package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ppmsim/app"
	"github.com/kilianp07/ppmsim/config"
	"github.com/kilianp07/ppmsim/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "ppmsim",
	Short:        "Production plan import and telemetry simulator",
	SilenceUsage: true,
	RunE:         runAll,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily import and the simulation",
	RunE:  runAll,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func runAll(cmd *cobra.Command, args []string) error {
	return serve(cmd, app.Options{Mode: app.ModeAll})
}

// interruptible returns the command context cancelled on SIGINT or SIGTERM.
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func serve(cmd *cobra.Command, opts app.Options) error {
	ctx, stop := interruptible(cmd)
	defer stop()

	svc, err := newService(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

func newService(ctx context.Context, opts app.Options) (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(ctx, cfg, opts)
}
