package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.pilab.hu/authmodel/config"
	"go.pilab.hu/authmodel/log"
	"go.pilab.hu/authmodel/tracing"
)

const appName = "authmodel"

var (
	cfgFile   string
	traceOut  bool
	cfg       *config.Config
	appLogger log.Logger
	tp        *sdktrace.TracerProvider
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "authmodel manages the OAuth2 model datastore",
	Long:          `Operations tool for the OAuth2 model: runs the ops server, migrates indexes and provisions clients, users, scopes and tokens.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}

		level := log.ParseLevel(cfg.LogLevel)
		log.SetupGlobal(level, cfg.LogPretty)
		appLogger = log.NewZerologAdapter(level, cfg.LogPretty)

		var w io.Writer = io.Discard
		if traceOut {
			w = os.Stderr
		}
		tp, err = tracing.InitTracerProvider(cfg.OtelServiceName, w)
		if err != nil {
			return fmt.Errorf("failed to initialize TracerProvider: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdownTracer()
	},
}

func shutdownTracer() error {
	if tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := tp.Shutdown(ctx)
	tp = nil
	return err
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = shutdownTracer()
		if appLogger != nil {
			appLogger.Error(context.Background(), "Command failed", err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default searches /etc/%[1]s, $HOME/.%[1]s and .)", appName))
	rootCmd.PersistentFlags().BoolVar(&traceOut, "trace", false, "print spans to stderr")
}
