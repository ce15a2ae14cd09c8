package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fdg312/fridge-journal/internal/apiclient"
	"github.com/fdg312/fridge-journal/internal/journal"
	"github.com/fdg312/fridge-journal/internal/nutrition"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Read and edit the food journal",
	}
	cmd.AddCommand(newJournalDayCmd(a), newJournalSetAmountCmd(a))
	return cmd
}

func newJournalDayCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show one day grouped by meal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.client.Day(cmd.Context(), resolveDate(date))
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return writeJSON(cmd, day)
			}
			return renderDay(cmd, day)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	return cmd
}

// newJournalSetAmountCmd edits an entry through the optimistic day cache so
// the printed totals match what the server accepted.
func newJournalSetAmountCmd(a *app) *cobra.Command {
	var (
		date string
		unit string
	)

	cmd := &cobra.Command{
		Use:   "set-amount ENTRY_ID AMOUNT",
		Short: "Change the amount of a journal entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			var u nutrition.Unit
			if unit != "" {
				if u, err = nutrition.ParseUnit(unit); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			day, err := a.client.Day(ctx, resolveDate(date))
			if err != nil {
				return err
			}

			cache := apiclient.NewDayCache(*day)
			pusher := apiclient.NewAmountSync(a.client, cache, time.Millisecond)
			var pushErr error
			pusher.OnSettled = func(_ string, err error) { pushErr = err }

			if _, err := pusher.SetAmount(ctx, args[0], amount, u); err != nil {
				return err
			}
			pusher.Wait()
			if pushErr != nil {
				return pushErr
			}

			updated := cache.Day()
			if a.output == outputJSON {
				return writeJSON(cmd, updated)
			}
			return renderDay(cmd, &updated)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day of the entry as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&unit, "unit", "", "unit of AMOUNT (default: the product unit)")
	return cmd
}

func renderDay(cmd *cobra.Command, day *journal.DayView) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s kcal  P %s  F %s  C %s\n\n",
		day.Date, formatNumber(day.Kcal),
		formatNumber(day.Totals.Proteins), formatNumber(day.Totals.Fats), formatNumber(day.Totals.Carbs))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
	for _, meal := range day.Meals {
		target := ""
		if meal.Targets != nil {
			target = " / " + formatNumber(meal.Targets.Kcal)
		}
		fmt.Fprintf(w, "%s\t\t%s%s kcal\t\n", meal.Name, formatNumber(meal.Kcal), target)
		for _, el := range meal.Elements {
			fmt.Fprintf(w, "  %s\t%s\t%s kcal\t%s\n",
				el.Product.Name,
				formatAmount(el.Display.Value, string(el.Display.Unit)),
				formatNumber(el.Kcal),
				el.EntryID,
			)
		}
	}
	return w.Flush()
}

func resolveDate(date string) string {
	if date == "" {
		return time.Now().Format(time.DateOnly)
	}
	return date
}
