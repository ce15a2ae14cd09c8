package memory

import (
	"context"
	"sort"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) ListMeals(ctx context.Context, ownerUserID string) ([]storage.Meal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meals := []storage.Meal{}
	for _, meal := range m.meals {
		if meal.OwnerUserID == ownerUserID {
			meals = append(meals, meal)
		}
	}
	sort.Slice(meals, func(i, j int) bool {
		if meals[i].Position != meals[j].Position {
			return meals[i].Position < meals[j].Position
		}
		return meals[i].CreatedAt.Before(meals[j].CreatedAt)
	})

	return meals, nil
}

func (m *MemoryStorage) GetMeal(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.Meal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meal, ok := m.meals[id]
	if !ok || meal.OwnerUserID != ownerUserID {
		return nil, storage.ErrNotFound
	}
	return &meal, nil
}

func (m *MemoryStorage) CreateMeals(ctx context.Context, meals []*storage.Meal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, meal := range meals {
		if meal.ID == uuid.Nil {
			meal.ID = uuid.New()
		}
		meal.CreatedAt = now
		meal.UpdatedAt = now
		m.meals[meal.ID] = *meal
	}
	return nil
}

func (m *MemoryStorage) UpdateMeal(ctx context.Context, meal *storage.Meal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.meals[meal.ID]
	if !ok || existing.OwnerUserID != meal.OwnerUserID {
		return storage.ErrNotFound
	}

	meal.CreatedAt = existing.CreatedAt
	meal.UpdatedAt = m.now()
	m.meals[meal.ID] = *meal
	return nil
}

func (m *MemoryStorage) DeleteMeal(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meal, ok := m.meals[id]
	if !ok || meal.OwnerUserID != ownerUserID {
		return storage.ErrNotFound
	}
	for _, e := range m.journal {
		if e.MealID == id {
			return storage.ErrReferenced
		}
	}

	delete(m.meals, id)
	return nil
}
