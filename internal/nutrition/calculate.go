package nutrition

import (
	"fmt"
	"math"
)

// Product carries the reference values nutrients are defined against.
type Product struct {
	Amount  float64 `json:"amount"`
	Unit    Unit    `json:"unit"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbons float64 `json:"carbons"`
}

// Validate reports ErrDegenerateProduct or ErrUnknownUnit for products the
// calculator cannot work with.
func (p Product) Validate() error {
	if !p.Unit.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, p.Unit)
	}
	if !(p.Amount > 0) || math.IsInf(p.Amount, 0) {
		return ErrDegenerateProduct
	}
	return nil
}

// Nutrients is a protein/fat/carbohydrate triple in grams.
type Nutrients struct {
	Proteins float64 `json:"proteins"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
}

// Kcal returns the energy value: 4 kcal per gram of protein or carbohydrate, 9 per gram of fat.
func (n Nutrients) Kcal() float64 {
	return (n.Proteins+n.Carbs)*4 + n.Fats*9
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Proteins: n.Proteins + o.Proteins,
		Fats:     n.Fats + o.Fats,
		Carbs:    n.Carbs + o.Carbs,
	}
}

func (n Nutrients) Scale(f float64) Nutrients {
	return Nutrients{
		Proteins: n.Proteins * f,
		Fats:     n.Fats * f,
		Carbs:    n.Carbs * f,
	}
}

// Reference returns the product's reference nutrients.
func (p Product) Reference() Nutrients {
	return Nutrients{Proteins: p.Protein, Fats: p.Fat, Carbs: p.Carbons}
}

// Calculate returns the nutrients contained in amount (given in unit) of p.
func Calculate(amount float64, unit Unit, p Product) (Nutrients, error) {
	if err := p.Validate(); err != nil {
		return Nutrients{}, err
	}
	if !unit.Valid() {
		return Nutrients{}, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	if !Compatible(unit, p.Unit) {
		return Nutrients{}, fmt.Errorf("%w: %s -> %s", ErrIncompatibleUnits, unit, p.Unit)
	}

	largeRef, smallRef := p.Amount, p.Amount
	if p.Unit.IsLarge() {
		smallRef = p.Amount * ExchangeRate
	} else {
		largeRef = p.Amount / ExchangeRate
	}

	ref := smallRef
	if unit.IsLarge() {
		ref = largeRef
	}

	return p.Reference().Scale(amount / ref), nil
}
