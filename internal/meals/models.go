package meals

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/storage"
)

// MaxTarget caps each daily macro target, in grams.
const MaxTarget = 1000

// DefaultMeals are created for every new owner, in order.
var DefaultMeals = []string{"breakfast", "lunch", "dinner", "snack"}

type MealDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Position       int       `json:"position"`
	TargetProteins *float64  `json:"target_proteins"`
	TargetFat      *float64  `json:"target_fat"`
	TargetCarbons  *float64  `json:"target_carbons"`
	TargetKcal     *float64  `json:"target_kcal"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Targets returns the meal targets when all three are set.
func Targets(m storage.Meal) (nutrition.Nutrients, bool) {
	if m.TargetProteins == nil || m.TargetFat == nil || m.TargetCarbons == nil {
		return nutrition.Nutrients{}, false
	}
	return nutrition.Nutrients{
		Proteins: *m.TargetProteins,
		Fats:     *m.TargetFat,
		Carbs:    *m.TargetCarbons,
	}, true
}

func ToDTO(m storage.Meal) MealDTO {
	dto := MealDTO{
		ID:             m.ID.String(),
		Name:           m.Name,
		Position:       m.Position,
		TargetProteins: m.TargetProteins,
		TargetFat:      m.TargetFat,
		TargetCarbons:  m.TargetCarbons,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if t, ok := Targets(m); ok {
		kcal := t.Kcal()
		dto.TargetKcal = &kcal
	}
	return dto
}

type CreateMealRequest struct {
	Name           string   `json:"name"`
	Position       *int     `json:"position"`
	TargetProteins *float64 `json:"target_proteins"`
	TargetFat      *float64 `json:"target_fat"`
	TargetCarbons  *float64 `json:"target_carbons"`
}

func (r *CreateMealRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := validateName(r.Name); err != nil {
		return err
	}
	if r.Position != nil && *r.Position < 0 {
		return fmt.Errorf("position must be non-negative")
	}
	return validateTargets(r.TargetProteins, r.TargetFat, r.TargetCarbons)
}

// UpdateMealRequest is a partial update. ClearTargets removes all targets
// before the provided ones are applied.
type UpdateMealRequest struct {
	Name           *string  `json:"name"`
	Position       *int     `json:"position"`
	TargetProteins *float64 `json:"target_proteins"`
	TargetFat      *float64 `json:"target_fat"`
	TargetCarbons  *float64 `json:"target_carbons"`
	ClearTargets   bool     `json:"clear_targets"`
}

func (r *UpdateMealRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
		if err := validateName(name); err != nil {
			return err
		}
	}
	if r.Position != nil && *r.Position < 0 {
		return fmt.Errorf("position must be non-negative")
	}
	return validateTargets(r.TargetProteins, r.TargetFat, r.TargetCarbons)
}

func validateName(name string) error {
	if name == "" || len(name) > 100 {
		return fmt.Errorf("name must be between 1 and 100 characters")
	}
	return nil
}

func validateTargets(targets ...*float64) error {
	for _, t := range targets {
		if t == nil {
			continue
		}
		if math.IsNaN(*t) || *t < 0 || *t > MaxTarget {
			return fmt.Errorf("targets must be between 0 and %d", MaxTarget)
		}
	}
	return nil
}
