package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	forecastapi "github.com/kilianp07/bikecast/api/forecasting"
	"github.com/kilianp07/bikecast/core/runlog"
	"github.com/kilianp07/bikecast/infra/logger"
	"github.com/kilianp07/bikecast/infra/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the forecast over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, svc, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	log := logger.New("server")

	if cfg.Metrics.HasSink("prometheus") {
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.Metrics.PrometheusAddress); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}

	var runs runlog.Store
	if cfg.Logging.Backend != "none" {
		runs = svc.Runs()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           forecastapi.NewRouter(svc, runs, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	log.Infof("shutting down")
	return srv.Shutdown(shutdownCtx)
}
