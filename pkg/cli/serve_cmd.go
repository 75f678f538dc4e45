package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lakeload/internal/app"
	"lakeload/internal/pipeline"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(rt *env) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the optional run schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				rt.cfg.ListenAddr = listen
			}
			logger := rt.logger

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := app.New(ctx, rt.cfg, rt.datasets, logger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			var sched *pipeline.Scheduler
			if rt.cfg.ScheduleCron != "" {
				sched, err = pipeline.NewScheduler(a.Runner, rt.cfg.ScheduleCron, logger)
				if err != nil {
					return err
				}
				sched.Start()
			}

			srv := &http.Server{
				Addr:              rt.cfg.ListenAddr,
				Handler:           a.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP API listening", "addr", rt.cfg.ListenAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				logger.Info("shutting down")
			}

			shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancelShutdown()
			if sched != nil {
				if err := sched.Stop(shutdownCtx); err != nil {
					logger.Warn("scheduler stop", "error", err)
				}
			}
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides LISTEN_ADDR)")
	return cmd
}
