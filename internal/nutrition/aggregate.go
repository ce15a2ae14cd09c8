package nutrition

// MealElement is a product together with an amount in the product's own unit.
type MealElement struct {
	Product Product
	Amount  float64
}

// Aggregate sums the nutrients of all elements. Amounts must already be in
// each product's reference unit. A product with a zero reference amount
// yields non-finite totals; callers validate products before storing them.
func Aggregate(elements []MealElement) Nutrients {
	var total Nutrients
	for _, e := range elements {
		p := e.Product
		total = total.Add(Nutrients{
			Proteins: e.Amount * (p.Protein / p.Amount),
			Fats:     e.Amount * (p.Fat / p.Amount),
			Carbs:    e.Amount * (p.Carbons / p.Amount),
		})
	}
	return total
}
