package fridge

import (
	"fmt"
	"math"
	"time"

	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/products"
	"github.com/fdg312/fridge-journal/internal/storage"
)

// ItemDTO is a fridge item with amounts in the product's unit and a
// normalized display amount.
type ItemDTO struct {
	ID               string              `json:"id"`
	Product          products.ProductDTO `json:"product"`
	CurrentAmount    float64             `json:"current_amount"`
	Threshold        float64             `json:"threshold"`
	IsOnShoppingList bool                `json:"is_on_shopping_list"`
	BelowThreshold   bool                `json:"below_threshold"`
	Display          nutrition.Amount    `json:"display"`
	AvailableUnits   []nutrition.Unit    `json:"available_units"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func ToDTO(item storage.FridgeItem) ItemDTO {
	return ItemDTO{
		ID:               item.ID.String(),
		Product:          products.ToDTO(item.Product),
		CurrentAmount:    item.CurrentAmount,
		Threshold:        item.Threshold,
		IsOnShoppingList: item.IsOnShoppingList,
		BelowThreshold:   item.CurrentAmount < item.Threshold,
		Display:          nutrition.Normalize(item.CurrentAmount, item.Product.Unit),
		AvailableUnits:   nutrition.AvailableUnits(item.Product.Unit),
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// CreateItemRequest adds a product to the fridge. Unit applies to both
// CurrentAmount and Threshold and defaults to the product's unit.
type CreateItemRequest struct {
	ProductBarcode   string  `json:"product_barcode"`
	CurrentAmount    float64 `json:"current_amount"`
	Unit             string  `json:"unit"`
	Threshold        float64 `json:"threshold"`
	IsOnShoppingList bool    `json:"is_on_shopping_list"`
}

// UpdateItemRequest changes only the provided fields.
type UpdateItemRequest struct {
	CurrentAmount    *float64 `json:"current_amount"`
	Unit             *string  `json:"unit"`
	Threshold        *float64 `json:"threshold"`
	IsOnShoppingList *bool    `json:"is_on_shopping_list"`
}

func validateAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s must be a non-negative number", name)
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
