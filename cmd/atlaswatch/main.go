package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlaswatch/api/pkg/config"
	"github.com/atlaswatch/api/pkg/logging"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	cfgFile string
	envFile []string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "atlaswatch",
		Short: "Backend API for the interstellar object mission dashboard",
		Long: `atlaswatch proxies JPL Horizons, the Minor Planet Center and an OpenAI
model for the mission dashboard, caching their responses, and estimates
positions of the tracked object when Horizons does not list it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadDotEnv(envFile...)
			if err != nil {
				return fmt.Errorf("failed to load env file: %w", err)
			}
			if verbose && len(loaded) > 0 {
				fmt.Fprintln(os.Stderr, "Loaded env files:", loaded)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml when present)")
	rootCmd.PersistentFlags().StringSliceVar(&envFile, "env-file", config.DefaultEnvFiles, "env files to load, earlier files win")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		serveCmd(),
		estimateCmd(),
		trajectoryCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads settings and initializes logging from them
func loadConfig() (*config.Config, *config.Catalog, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	catalog, err := config.LoadCatalog(cfg.Catalog.Path, cfg.Catalog.Tracked)
	if err != nil {
		return nil, nil, err
	}
	logging.Logger.Debug("Configuration loaded",
		zap.String("config", cfgFile),
		zap.String("catalog", cfg.Catalog.Path),
		zap.String("tracked", catalog.Tracked().Name))
	return cfg, catalog, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "atlaswatch %s (built %s)\n", version, buildTime)
		},
	}
}
