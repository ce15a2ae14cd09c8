package products

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/storage"
)

// ProductDTO is the API view of a product. Nutrients are per Amount of Unit.
type ProductDTO struct {
	ID             string           `json:"id"`
	Barcode        string           `json:"barcode"`
	Name           string           `json:"name"`
	Amount         float64          `json:"amount"`
	Unit           nutrition.Unit   `json:"unit"`
	AvailableUnits []nutrition.Unit `json:"available_units"`
	Picture        string           `json:"picture"`
	Protein        float64          `json:"protein"`
	Fat            float64          `json:"fat"`
	Carbons        float64          `json:"carbons"`
	Kcal           float64          `json:"kcal"`
	AddedBy        string           `json:"added_by"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func ToDTO(p storage.Product) ProductDTO {
	return ProductDTO{
		ID:             p.ID.String(),
		Barcode:        p.Barcode,
		Name:           p.Name,
		Amount:         p.Amount,
		Unit:           p.Unit,
		AvailableUnits: nutrition.AvailableUnits(p.Unit),
		Picture:        p.Picture,
		Protein:        p.Protein,
		Fat:            p.Fat,
		Carbons:        p.Carbons,
		Kcal:           p.Nutrition().Reference().Kcal(),
		AddedBy:        p.AddedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// Nutrition returns the calculator view of the product.
func (p ProductDTO) Nutrition() nutrition.Product {
	return nutrition.Product{Amount: p.Amount, Unit: p.Unit, Protein: p.Protein, Fat: p.Fat, Carbons: p.Carbons}
}

// ProductRequest is the body of POST and PUT. PUT replaces every field.
type ProductRequest struct {
	Barcode string  `json:"barcode"`
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Picture string  `json:"picture"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbons float64 `json:"carbons"`
}

// PatchProductRequest changes only the provided fields.
type PatchProductRequest struct {
	Name    *string  `json:"name"`
	Amount  *float64 `json:"amount"`
	Unit    *string  `json:"unit"`
	Picture *string  `json:"picture"`
	Protein *float64 `json:"protein"`
	Fat     *float64 `json:"fat"`
	Carbons *float64 `json:"carbons"`
}

// NutrientsResponse answers GET /v1/products/{barcode}/nutrients.
type NutrientsResponse struct {
	Barcode   string              `json:"barcode"`
	Amount    float64             `json:"amount"`
	Unit      nutrition.Unit      `json:"unit"`
	Nutrients nutrition.Nutrients `json:"nutrients"`
	Kcal      float64             `json:"kcal"`
}

// apply copies the request onto p after validation.
func (r ProductRequest) apply(p *storage.Product) error {
	unit, err := nutrition.ParseUnit(r.Unit)
	if err != nil {
		return err
	}
	p.Barcode = strings.TrimSpace(r.Barcode)
	p.Name = strings.TrimSpace(r.Name)
	p.Amount = r.Amount
	p.Unit = unit
	p.Picture = strings.TrimSpace(r.Picture)
	p.Protein = r.Protein
	p.Fat = r.Fat
	p.Carbons = r.Carbons
	return validateProduct(p)
}

func (r PatchProductRequest) apply(p *storage.Product) error {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Amount != nil {
		p.Amount = *r.Amount
	}
	if r.Unit != nil {
		unit, err := nutrition.ParseUnit(*r.Unit)
		if err != nil {
			return err
		}
		p.Unit = unit
	}
	if r.Picture != nil {
		p.Picture = strings.TrimSpace(*r.Picture)
	}
	if r.Protein != nil {
		p.Protein = *r.Protein
	}
	if r.Fat != nil {
		p.Fat = *r.Fat
	}
	if r.Carbons != nil {
		p.Carbons = *r.Carbons
	}
	return validateProduct(p)
}

func validateProduct(p *storage.Product) error {
	if p.Barcode == "" || len(p.Barcode) > 64 {
		return fmt.Errorf("barcode must be between 1 and 64 characters")
	}
	if strings.ContainsAny(p.Barcode, "/?#") {
		return fmt.Errorf("barcode contains invalid characters")
	}
	if p.Name == "" || len(p.Name) > 200 {
		return fmt.Errorf("name must be between 1 and 200 characters")
	}
	if err := p.Nutrition().Validate(); err != nil {
		return err
	}
	for name, v := range map[string]float64{"protein": p.Protein, "fat": p.Fat, "carbons": p.Carbons} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%s must be a non-negative number", name)
		}
	}
	return nil
}
