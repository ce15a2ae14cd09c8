package journal

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/products"
	"github.com/fdg312/fridge-journal/internal/storage"
)

const dateLayout = "2006-01-02"

// EntryDTO is a journal entry. Amount is in the product's unit.
type EntryDTO struct {
	ID        string              `json:"id"`
	Date      string              `json:"date"`
	MealID    string              `json:"meal_id"`
	Product   products.ProductDTO `json:"product"`
	Amount    float64             `json:"amount"`
	Unit      nutrition.Unit      `json:"unit"`
	Display   nutrition.Amount    `json:"display"`
	Nutrients nutrition.Nutrients `json:"nutrients"`
	Kcal      float64             `json:"kcal"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func ToDTO(e storage.JournalEntry) EntryDTO {
	n := nutrition.Aggregate([]nutrition.MealElement{element(e)})
	return EntryDTO{
		ID:        e.ID.String(),
		Date:      e.Date,
		MealID:    e.MealID.String(),
		Product:   products.ToDTO(e.Product),
		Amount:    e.Amount,
		Unit:      e.Product.Unit,
		Display:   nutrition.Normalize(e.Amount, e.Product.Unit),
		Nutrients: n,
		Kcal:      n.Kcal(),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func element(e storage.JournalEntry) nutrition.MealElement {
	return nutrition.MealElement{Product: e.Product.Nutrition(), Amount: e.Amount}
}

// CreateEntryRequest records an eaten product. Unit defaults to the product's unit.
type CreateEntryRequest struct {
	Date           string  `json:"date"`
	MealID         string  `json:"meal_id"`
	ProductBarcode string  `json:"product_barcode"`
	Amount         float64 `json:"amount"`
	Unit           string  `json:"unit"`
}

// UpdateEntryRequest changes only the provided fields. Unit applies to Amount.
type UpdateEntryRequest struct {
	Date   *string  `json:"date"`
	MealID *string  `json:"meal_id"`
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
}

// Targets is a meal's nutrient goal with its energy value.
type Targets struct {
	nutrition.Nutrients
	Kcal float64 `json:"kcal"`
}

// Element is one entry inside a day view meal.
type Element struct {
	EntryID   string              `json:"entry_id"`
	Product   products.ProductDTO `json:"product"`
	Amount    float64             `json:"amount"`
	Unit      nutrition.Unit      `json:"unit"`
	Display   nutrition.Amount    `json:"display"`
	Nutrients nutrition.Nutrients `json:"nutrients"`
	Kcal      float64             `json:"kcal"`
}

// MealView is one meal of a day with its elements and totals.
type MealView struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Position int                 `json:"position"`
	Elements []Element           `json:"elements"`
	Totals   nutrition.Nutrients `json:"totals"`
	Kcal     float64             `json:"kcal"`
	Targets  *Targets            `json:"targets"`
}

// DayView is everything eaten on a date, grouped by meal.
type DayView struct {
	Date   string              `json:"date"`
	Meals  []MealView          `json:"meals"`
	Totals nutrition.Nutrients `json:"totals"`
	Kcal   float64             `json:"kcal"`
}

func parseDate(raw string) (string, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("date must be YYYY-MM-DD")
	}
	return t.Format(dateLayout), nil
}

// dateFromParts builds a date from ?year=&month=&day=.
func dateFromParts(year, month, day string) (string, error) {
	var parts [3]int
	for i, raw := range []string{year, month, day} {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("year, month and day must be integers")
		}
		parts[i] = v
	}
	y, m, d := parts[0], parts[1], parts[2]
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", fmt.Errorf("year, month and day do not form a valid date")
	}
	return t.Format(dateLayout), nil
}

func validateAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("amount must be a non-negative number")
	}
	return nil
}

// toProductUnit converts v given in raw (or the product's unit when raw is
// empty) into the product's unit.
func toProductUnit(v float64, raw string, p storage.Product) (float64, error) {
	if raw == "" {
		return v, nil
	}
	unit, err := nutrition.ParseUnit(raw)
	if err != nil {
		return 0, err
	}
	return nutrition.ToProductUnit(v, unit, p.Nutrition())
}
