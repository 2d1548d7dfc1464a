package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finflow/internal/cli"
	"finflow/internal/core"
	"finflow/internal/log"
)

var (
	flagToday string

	app    *cli.App
	stopFn context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "finflow",
	Short: "Personal finance ledger driven by short Vietnamese or English phrases",
	Long: "Record transactions from phrases like \"Ăn sáng 20k, xăng 50k\", " +
		"track wallet budgets and keep a daily logging streak.",
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagToday, "today", "", "Treat this date (YYYY-MM-DD) as today")
}

func setup(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	if flagToday != "" {
		if _, err := core.ParseDate(flagToday); err != nil {
			return fmt.Errorf("invalid --today: %w", err)
		}
	}

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context(), logger)
	stopFn = stop
	cmd.SetContext(log.NewContext(ctx, logger))

	app, err = cli.NewApp(ctx, logger, cfg)
	if err != nil {
		stop()
		return err
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if stopFn != nil {
		defer stopFn()
	}
	if app == nil {
		return nil
	}
	return app.Close()
}

// now returns the wall clock, shifted onto --today when given.
func now() time.Time {
	t := time.Now()
	if flagToday == "" {
		return t
	}
	d, err := core.ParseDate(flagToday)
	if err != nil {
		return t
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
