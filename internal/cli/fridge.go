package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fdg312/fridge-journal/internal/apiclient"
)

func newFridgeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fridge",
		Short: "Inspect fridge items",
	}
	cmd.AddCommand(newFridgeListCmd(a))
	return cmd
}

func newFridgeListCmd(a *app) *cobra.Command {
	var filter apiclient.FridgeFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List fridge items",
		Example: `  fridgectl fridge list
  fridgectl fridge list --shopping-list
  fridgectl fridge list --name milk --page 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.client.Fridge(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return writeJSON(cmd, page)
			}

			if len(page.Results) == 0 {
				cmd.Println("No fridge items.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
			fmt.Fprintln(w, "Product\tBarcode\tAmount\tThreshold\tBelow\tShopping")
			fmt.Fprintln(w, "-------\t-------\t------\t---------\t-----\t--------")
			for _, item := range page.Results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
					item.Product.Name,
					item.Product.Barcode,
					formatAmount(item.Display.Value, string(item.Display.Unit)),
					formatNumber(item.Threshold), item.Product.Unit,
					yesNo(item.BelowThreshold),
					yesNo(item.IsOnShoppingList),
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if page.Next != nil {
				cmd.Printf("\n%d items, more with --page %d\n", page.Count, max(filter.Page, 1)+1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&filter.ShoppingList, "shopping-list", false, "only items on the shopping list")
	cmd.Flags().BoolVar(&filter.BelowThreshold, "below-threshold", false, "only items below their threshold")
	cmd.Flags().StringVar(&filter.ProductName, "name", "", "filter by product name")
	cmd.Flags().IntVar(&filter.Page, "page", 1, "page number")
	return cmd
}
