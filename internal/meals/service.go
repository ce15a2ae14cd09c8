package meals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/fdg312/fridge-journal/internal/storage"
)

var (
	ErrNotFound   = errors.New("meal not found")
	ErrMealInUse  = errors.New("meal in use")
	ErrValidation = errors.New("validation failed")
)

// Service handles user meals.
type Service struct {
	storage storage.MealsStorage

	// defaultsMu serialises the lazy creation of default meals.
	defaultsMu sync.Mutex
}

func NewService(storage storage.MealsStorage) *Service {
	return &Service{storage: storage}
}

// EnsureDefaults creates DefaultMeals when the owner has no meals yet.
func (s *Service) EnsureDefaults(ctx context.Context, ownerUserID string) error {
	_, err := s.listOrCreateDefaults(ctx, ownerUserID)
	return err
}

// List returns the owner's meals ordered by position.
func (s *Service) List(ctx context.Context, ownerUserID string) ([]MealDTO, error) {
	meals, err := s.listOrCreateDefaults(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	dtos := make([]MealDTO, len(meals))
	for i, m := range meals {
		dtos[i] = ToDTO(m)
	}
	return dtos, nil
}

// Meals returns the owner's stored meals, creating the defaults first if needed.
func (s *Service) Meals(ctx context.Context, ownerUserID string) ([]storage.Meal, error) {
	return s.listOrCreateDefaults(ctx, ownerUserID)
}

func (s *Service) listOrCreateDefaults(ctx context.Context, ownerUserID string) ([]storage.Meal, error) {
	s.defaultsMu.Lock()
	defer s.defaultsMu.Unlock()

	meals, err := s.storage.ListMeals(ctx, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	if len(meals) > 0 {
		return meals, nil
	}

	created := make([]*storage.Meal, len(DefaultMeals))
	for i, name := range DefaultMeals {
		created[i] = &storage.Meal{OwnerUserID: ownerUserID, Name: name, Position: i}
	}
	if err := s.storage.CreateMeals(ctx, created); err != nil {
		return nil, fmt.Errorf("create default meals: %w", err)
	}

	meals = make([]storage.Meal, len(created))
	for i, m := range created {
		meals[i] = *m
	}
	return meals, nil
}

func (s *Service) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (*MealDTO, error) {
	m, err := s.storage.GetMeal(ctx, ownerUserID, id)
	if err != nil {
		return nil, mapStorageError(err)
	}
	dto := ToDTO(*m)
	return &dto, nil
}

func (s *Service) Create(ctx context.Context, ownerUserID string, req CreateMealRequest) (*MealDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	position := 0
	if req.Position != nil {
		position = *req.Position
	} else {
		existing, err := s.storage.ListMeals(ctx, ownerUserID)
		if err != nil {
			return nil, fmt.Errorf("list meals: %w", err)
		}
		for _, m := range existing {
			if m.Position >= position {
				position = m.Position + 1
			}
		}
	}

	meal := &storage.Meal{
		OwnerUserID:    ownerUserID,
		Name:           req.Name,
		Position:       position,
		TargetProteins: req.TargetProteins,
		TargetFat:      req.TargetFat,
		TargetCarbons:  req.TargetCarbons,
	}
	if err := s.storage.CreateMeals(ctx, []*storage.Meal{meal}); err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}

	dto := ToDTO(*meal)
	return &dto, nil
}

func (s *Service) Update(ctx context.Context, ownerUserID string, id uuid.UUID, req UpdateMealRequest) (*MealDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	meal, err := s.storage.GetMeal(ctx, ownerUserID, id)
	if err != nil {
		return nil, mapStorageError(err)
	}

	if req.Name != nil {
		meal.Name = *req.Name
	}
	if req.Position != nil {
		meal.Position = *req.Position
	}
	if req.ClearTargets {
		meal.TargetProteins, meal.TargetFat, meal.TargetCarbons = nil, nil, nil
	}
	if req.TargetProteins != nil {
		meal.TargetProteins = req.TargetProteins
	}
	if req.TargetFat != nil {
		meal.TargetFat = req.TargetFat
	}
	if req.TargetCarbons != nil {
		meal.TargetCarbons = req.TargetCarbons
	}

	if err := s.storage.UpdateMeal(ctx, meal); err != nil {
		return nil, mapStorageError(err)
	}

	dto := ToDTO(*meal)
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return mapStorageError(s.storage.DeleteMeal(ctx, ownerUserID, id))
}

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrReferenced):
		return ErrMealInUse
	default:
		return err
	}
}
