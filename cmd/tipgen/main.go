package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tipgen/internal/config"
	"github.com/nvandessel/tipgen/internal/logging"
	"github.com/nvandessel/tipgen/internal/store"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tipgen",
		Short: "Synthetic delivery-tipping dataset generator",
		Long: `tipgen simulates food-delivery orders and the tips customers leave.

Each order's features (distance, subtotal, wait time, weather, timing,
rating, item and message counts) are drawn from configured distributions,
and a fixed heuristic plus Gaussian noise turns them into a tip percentage.
Generated tables can be written as CSV, Parquet, Arrow or snapshot files,
kept in a local catalog, described, plotted, and used to fit models.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.tipgen/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newDescribeCmd(),
		newTrainCmd(),
		newPlotCmd(),
		newDatasetsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput(cmd) {
				return writeJSON(cmd, map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tipgen version %s\n", version)
			return nil
		},
	}
}

// app is the configuration and logging every command starts from.
type app struct {
	cfg     *config.TipgenConfig
	dataDir string
	logger  *slog.Logger
}

// loadApp loads and validates configuration, applying the --log-level flag.
func loadApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir, err := cfg.ResolvedDataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	return &app{
		cfg:     cfg,
		dataDir: dataDir,
		logger:  logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
	}, nil
}

func (a *app) openCatalog() (*store.SQLiteStore, error) {
	s, err := store.Open(a.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset catalog: %w", err)
	}
	a.logger.Debug("opened catalog", "path", s.Path())
	return s, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
