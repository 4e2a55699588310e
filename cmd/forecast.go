package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bikecast/pkg/export"
)

var outputFormat string

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Train on the first year, evaluate on the rest and print the forecast",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json, csv, yaml)")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	if !slices.Contains(export.Formats, outputFormat) {
		return fmt.Errorf("unknown format %q", outputFormat)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, svc, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	return svc.RunConsole(ctx, cmd.OutOrStdout(), outputFormat)
}
