package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/baxromumarov/price-scraper/internal/core"
	"github.com/baxromumarov/price-scraper/internal/scraper"
)

var scrapeStores []string

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeStores, "store", nil, "Only scrape the named store (repeatable)")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--store NAME]...",
	Short: "Runs one scrape pass over the configured stores and saves the results.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores := scraper.Filter(cfg.Stores, scrapeStores)
		if len(stores) == 0 {
			return fmt.Errorf("no configured store matches %v", scrapeStores)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sched := core.NewScrapeScheduler(a.Orchestrator, stores, 0, logger)
		report, _ := sched.TryRun(cmd.Context())

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Store", "Products", "Duration", "Error"})
		for _, res := range report.Results {
			t.AppendRow(table.Row{res.Store, res.Products, res.Duration.Round(time.Millisecond), res.Error})
		}
		t.AppendFooter(table.Row{"", "", "failed", fmt.Sprintf("%d/%d", report.Failed(), len(report.Results))})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
