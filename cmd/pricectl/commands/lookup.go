package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup PRODUCT STORE",
	Short: "Prints the scraped price of the first product at STORE whose name contains PRODUCT.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		price, found := a.Lookup.FindPrice(cmd.Context(), args[0], args[1])
		if !found {
			return fmt.Errorf("no scraped price for %q at %s", args[0], args[1])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", price)
		return nil
	},
}
