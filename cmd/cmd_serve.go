package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/config"
	"github.com/postcode-matcher/internal/bootstrap"
	"github.com/postcode-matcher/internal/observability"
)

var serveOptions struct {
	reload bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `
serve starts the HTTP API on app.port. The dataset is loaded in the
background; /ready answers 503 until the first generation is published.
With --reload the dataset is also refreshed every dataset.reload_interval.
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return runServer(cmd.Context(), cfg, serveOptions.reload)
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Reload the dataset and republish the search index on a schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return runWorker(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd)
	serveCmd.Flags().BoolVar(&serveOptions.reload, "reload", false, "also reload the dataset on dataset.reload_interval")
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func newProcessApp(cfg *config.Config) (*bootstrap.App, *zap.Logger, error) {
	logger, err := config.NewLogger(cfg.App)
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.New(cfg, logger, observability.NewMetrics())
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}

// runServer is shared with cmd/api.
func runServer(parent context.Context, cfg *config.Config, reload bool) error {
	app, logger, err := newProcessApp(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer app.Close()

	ctx, stop := signalContext(parent)
	defer stop()

	logger.Info("Starting postcode matcher", zap.String("version", Version), zap.String("env", cfg.App.Env))
	go func() {
		if _, err := app.Load(ctx); err != nil {
			logger.Error("Initial dataset load failed, serving unready", zap.Error(err))
		}
		if reload {
			app.RunReloader(ctx, clockwork.NewRealClock())
		}
	}()
	return app.Serve(ctx)
}

// runWorker is shared with cmd/worker.
func runWorker(parent context.Context, cfg *config.Config) error {
	app, logger, err := newProcessApp(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer app.Close()

	ctx, stop := signalContext(parent)
	defer stop()

	logger.Info("Starting reload worker", zap.String("version", Version))
	res, err := app.Load(ctx)
	if err != nil {
		logger.Error("Initial dataset load failed", zap.Error(err))
	} else {
		logger.Info("Initial dataset loaded",
			zap.Uint64("generation", res.Generation),
			zap.Int("records", res.Records),
			zap.Int("indexed", res.Indexed),
			zap.String("index_error", res.IndexError))
	}
	app.RunReloader(ctx, clockwork.NewRealClock())
	logger.Info("Worker exited")
	return nil
}

// Serve runs the HTTP API until SIGINT or SIGTERM.
func Serve(version string, cfg *config.Config) error {
	Version = version
	return runServer(context.Background(), cfg, false)
}

// Work runs the reload worker until SIGINT or SIGTERM.
func Work(version string, cfg *config.Config) error {
	Version = version
	return runWorker(context.Background(), cfg)
}
