package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/config"
	"github.com/postcode-matcher/internal/bootstrap"
)

var rootCmd = &cobra.Command{
	Use:   "postcode-matcher",
	Short: "Australian postcode and locality matching",
	Long: `
postcode-matcher resolves free-text Australian locality names to postcodes,
answers radius queries over the reference dataset, and loads that dataset
into the supported backing stores.
`,
	SilenceUsage: true,
}

var (
	Version    = "dev"
	configFile string
	verbose    bool
)

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: config/app.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// loadConfig reads configuration and builds the CLI logger. CLI output goes
// to stdout, so logs use the console encoder on stderr.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	appCfg := cfg.App
	appCfg.LogFormat = "console"
	appCfg.Env = "development"
	if verbose {
		appCfg.LogLevel = "debug"
	} else if appCfg.LogLevel == "info" {
		appCfg.LogLevel = "warn"
	}
	logger, err := config.NewLogger(appCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadApp wires the service and loads the configured dataset.
func loadApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	if _, err := app.Load(cmd.Context()); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return app, nil
}
