package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/price-scraper/internal/app"
	"github.com/baxromumarov/price-scraper/internal/config"
)

var (
	configFile string
	jsonLogs   bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "pricectl",
	Short:         "pricectl scrapes store catalogs and queries scraped prices.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		logCfg := cfg.Log
		if !jsonLogs {
			logCfg.Format = "text"
		}
		logger = app.NewLogger(logCfg, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Log JSON lines instead of coloured text")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), cfg, logger)
}
