package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fdg312/fridge-journal/internal/nutrition"
)

type nutrientsResult struct {
	Amount    nutrition.Amount    `json:"amount"`
	Nutrients nutrition.Nutrients `json:"nutrients"`
	Kcal      float64             `json:"kcal"`
}

// newNutrientsCmd works offline: it needs no server and no session.
func newNutrientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nutrients",
		Short: "Nutrient calculations",
	}
	cmd.AddCommand(newNutrientsCalcCmd(a))
	return cmd
}

func newNutrientsCalcCmd(a *app) *cobra.Command {
	var (
		amount  float64
		unit    string
		refUnit string
		product nutrition.Product
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Nutrients of an amount of a product",
		Example: `  # 1.5 kg of a product with 13/7/60 g per 100 g
  fridgectl nutrients calc --amount 1.5 --unit kg --ref-amount 100 --ref-unit g --protein 13 --fat 7 --carbons 60`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if product.Unit, err = nutrition.ParseUnit(refUnit); err != nil {
				return err
			}
			u := product.Unit
			if unit != "" {
				if u, err = nutrition.ParseUnit(unit); err != nil {
					return err
				}
			}

			n, err := nutrition.Calculate(amount, u, product)
			if err != nil {
				return err
			}

			res := nutrientsResult{Amount: nutrition.Normalize(amount, u), Nutrients: n, Kcal: n.Kcal()}
			if a.output == outputJSON {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: proteins %s g, fats %s g, carbs %s g, %s kcal\n",
				formatAmount(res.Amount.Value, string(res.Amount.Unit)),
				formatNumber(n.Proteins), formatNumber(n.Fats), formatNumber(n.Carbs), formatNumber(res.Kcal))
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "amount eaten")
	cmd.Flags().StringVar(&unit, "unit", "", "unit of --amount (default: --ref-unit)")
	cmd.Flags().Float64Var(&product.Amount, "ref-amount", 100, "reference amount the nutrient values refer to")
	cmd.Flags().StringVar(&refUnit, "ref-unit", string(nutrition.Gram), "unit of --ref-amount")
	cmd.Flags().Float64Var(&product.Protein, "protein", 0, "protein per reference amount")
	cmd.Flags().Float64Var(&product.Fat, "fat", 0, "fat per reference amount")
	cmd.Flags().Float64Var(&product.Carbons, "carbons", 0, "carbohydrates per reference amount")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
