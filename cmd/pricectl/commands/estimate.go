package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(estimateCmd)
}

var estimateCmd = &cobra.Command{
	Use:   "estimate ITEM...",
	Short: "Prices a shopping list at every store, cheapest first.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		estimates := a.Estimator.Estimate(cmd.Context(), args)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Store", "Item", "Price", "Source"})
		for _, est := range estimates {
			name := est.Name
			if est.IsCheapest {
				name += " *"
			}
			for _, line := range est.PriceBreakdown {
				t.AppendRow(table.Row{name, line.Item, fmt.Sprintf("%.2f", line.Price), line.Source})
			}
			t.AppendRow(table.Row{name, "total", fmt.Sprintf("%.2f", est.TotalPrice), ""})
			t.AppendSeparator()
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
