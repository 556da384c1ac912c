package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.pilab.hu/authmodel/internal/server"
	"go.pilab.hu/authmodel/log"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ops HTTP server (health, readiness, metrics)",
	Long: `Serves /healthz, /readyz for the configured MongoDB datastores and /metrics
with process collectors. Model counters are exported by the process that embeds
the model, through authmodel.WithRegisterer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		httpServer := server.NewHTTPServer(cfg.HTTPPort, server.NewOpsRouter(appLogger, reg, a.checks...))
		errCh := make(chan error, 1)
		go func() {
			appLogger.Info(ctx, "HTTP server listening", log.Fields{"port": cfg.HTTPPort})
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
			appLogger.Info(context.Background(), "Shutting down HTTP server...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
			return err
		}
		appLogger.Info(shutdownCtx, "Server gracefully stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
