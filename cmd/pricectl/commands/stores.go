package commands

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/baxromumarov/price-scraper/internal/store"
)

func init() {
	rootCmd.AddCommand(storesCmd)
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Lists configured stores with their saved product counts.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		summaries, err := a.Store.ListStores(cmd.Context())
		if err != nil {
			return err
		}
		byName := make(map[string]store.StoreSummary, len(summaries))
		for _, s := range summaries {
			byName[s.Store] = s
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Store", "Mode", "URLs", "Products", "Last updated"})
		for _, d := range cfg.Stores {
			sum := byName[d.Name]
			updated := ""
			if !sum.LastUpdated.IsZero() {
				updated = sum.LastUpdated.Local().Format(time.DateTime)
			}
			t.AppendRow(table.Row{d.Name, d.Mode, len(d.CategoryURLs), sum.Products, updated})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
