package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fdg312/fridge-journal/internal/meals"
	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/products"
	"github.com/fdg312/fridge-journal/internal/storage"
)

var (
	ErrNotFound        = errors.New("journal entry not found")
	ErrMealNotFound    = errors.New("meal not found")
	ErrProductNotFound = errors.New("product not found")
	ErrValidation      = errors.New("validation failed")
)

// Store is the storage the journal service needs.
type Store interface {
	storage.JournalStorage
	GetMeal(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.Meal, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*storage.Product, error)
}

// MealSource lists an owner's meals, creating defaults when there are none.
type MealSource interface {
	Meals(ctx context.Context, ownerUserID string) ([]storage.Meal, error)
}

type Service struct {
	storage Store
	meals   MealSource
}

func NewService(storage Store, meals MealSource) *Service {
	return &Service{storage: storage, meals: meals}
}

// List returns entries newest first. A non-empty date restricts them to that day.
func (s *Service) List(ctx context.Context, ownerUserID, date string, limit, offset int) ([]EntryDTO, int, error) {
	entries, total, err := s.storage.ListJournalEntries(ctx, ownerUserID, storage.JournalFilter{Date: date}, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list journal entries: %w", err)
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ToDTO(e)
	}
	return dtos, total, nil
}

func (s *Service) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (*EntryDTO, error) {
	e, err := s.storage.GetJournalEntry(ctx, ownerUserID, id)
	if err != nil {
		return nil, mapStorageError(err, ErrNotFound)
	}
	dto := ToDTO(*e)
	return &dto, nil
}

func (s *Service) Create(ctx context.Context, ownerUserID string, req CreateEntryRequest) (*EntryDTO, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	mealID, err := s.resolveMeal(ctx, ownerUserID, req.MealID)
	if err != nil {
		return nil, err
	}

	barcode := strings.TrimSpace(req.ProductBarcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: product_barcode is required", ErrValidation)
	}
	product, err := s.storage.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return nil, mapStorageError(err, ErrProductNotFound)
	}

	amount, err := toProductUnit(req.Amount, req.Unit, *product)
	if err != nil {
		return nil, err
	}

	e := &storage.JournalEntry{
		OwnerUserID: ownerUserID,
		Date:        date,
		MealID:      mealID,
		ProductID:   product.ID,
		Amount:      amount,
	}
	if err := s.storage.CreateJournalEntry(ctx, e); err != nil {
		return nil, mapStorageError(err, ErrNotFound)
	}

	e.Product = *product
	dto := ToDTO(*e)
	return &dto, nil
}

func (s *Service) Update(ctx context.Context, ownerUserID string, id uuid.UUID, req UpdateEntryRequest) (*EntryDTO, error) {
	e, err := s.storage.GetJournalEntry(ctx, ownerUserID, id)
	if err != nil {
		return nil, mapStorageError(err, ErrNotFound)
	}

	if req.Date != nil {
		if e.Date, err = parseDate(*req.Date); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
	}
	if req.MealID != nil {
		if e.MealID, err = s.resolveMeal(ctx, ownerUserID, *req.MealID); err != nil {
			return nil, err
		}
	}
	if req.Amount != nil {
		if err := validateAmount(*req.Amount); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		unit := ""
		if req.Unit != nil {
			unit = *req.Unit
		}
		if e.Amount, err = toProductUnit(*req.Amount, unit, e.Product); err != nil {
			return nil, err
		}
	} else if req.Unit != nil {
		return nil, fmt.Errorf("%w: unit requires amount", ErrValidation)
	}

	if err := s.storage.UpdateJournalEntry(ctx, e); err != nil {
		return nil, mapStorageError(err, ErrNotFound)
	}

	dto := ToDTO(*e)
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return mapStorageError(s.storage.DeleteJournalEntry(ctx, ownerUserID, id), ErrNotFound)
}

// Day builds the day view: one block per meal of the owner, in position
// order, followed by any other meal referenced by the day's entries.
func (s *Service) Day(ctx context.Context, ownerUserID, date string) (*DayView, error) {
	date, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	var (
		userMeals []storage.Meal
		entries   []storage.JournalEntry
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userMeals, err = s.meals.Meals(gCtx, ownerUserID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, _, err = s.storage.ListJournalEntries(gCtx, ownerUserID, storage.JournalFilter{Date: date}, 0, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load day %s: %w", date, err)
	}

	// Oldest first inside a meal.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	byMeal := make(map[uuid.UUID][]storage.JournalEntry)
	for _, e := range entries {
		byMeal[e.MealID] = append(byMeal[e.MealID], e)
	}

	known := make(map[uuid.UUID]bool, len(userMeals))
	for _, m := range userMeals {
		known[m.ID] = true
	}
	for _, e := range entries {
		if known[e.MealID] {
			continue
		}
		m, err := s.storage.GetMeal(ctx, ownerUserID, e.MealID)
		if err != nil {
			return nil, mapStorageError(err, ErrMealNotFound)
		}
		userMeals = append(userMeals, *m)
		known[m.ID] = true
	}

	day := &DayView{Date: date, Meals: make([]MealView, 0, len(userMeals))}
	for _, m := range userMeals {
		view := buildMealView(m, byMeal[m.ID])
		day.Meals = append(day.Meals, view)
		day.Totals = day.Totals.Add(view.Totals)
	}
	day.Kcal = day.Totals.Kcal()

	return day, nil
}

func buildMealView(m storage.Meal, entries []storage.JournalEntry) MealView {
	view := MealView{
		ID:       m.ID.String(),
		Name:     m.Name,
		Position: m.Position,
		Elements: make([]Element, 0, len(entries)),
	}

	elements := make([]nutrition.MealElement, len(entries))
	for i, e := range entries {
		elements[i] = element(e)
		n := nutrition.Aggregate(elements[i : i+1])
		view.Elements = append(view.Elements, Element{
			EntryID:   e.ID.String(),
			Product:   products.ToDTO(e.Product),
			Amount:    e.Amount,
			Unit:      e.Product.Unit,
			Display:   nutrition.Normalize(e.Amount, e.Product.Unit),
			Nutrients: n,
			Kcal:      n.Kcal(),
		})
	}

	view.Totals = nutrition.Aggregate(elements)
	view.Kcal = view.Totals.Kcal()
	if t, ok := meals.Targets(m); ok {
		view.Targets = &Targets{Nutrients: t, Kcal: t.Kcal()}
	}
	return view
}

func (s *Service) resolveMeal(ctx context.Context, ownerUserID, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: meal_id must be a UUID", ErrValidation)
	}
	if _, err := s.storage.GetMeal(ctx, ownerUserID, id); err != nil {
		return uuid.Nil, mapStorageError(err, ErrMealNotFound)
	}
	return id, nil
}

func mapStorageError(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return notFound
	default:
		return err
	}
}
