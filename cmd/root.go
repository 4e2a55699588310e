package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bikecast/app"
	"github.com/kilianp07/bikecast/config"
	coremon "github.com/kilianp07/bikecast/core/monitoring"
	"github.com/kilianp07/bikecast/infra/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "bikecast",
	Short:         "Bike rental forecasting",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// setup loads the configuration, installs the error monitor and builds the
// service. The returned cleanup flushes the monitor and closes the service.
func setup() (*config.Config, *app.Service, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	svc, err := app.New(cfg)
	if err != nil {
		coremon.Flush(2 * time.Second)
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := svc.Close(); err != nil {
			coremon.CaptureException(err, map[string]string{"module": "service"})
		}
		coremon.Flush(2 * time.Second)
	}
	return cfg, svc, cleanup, nil
}
