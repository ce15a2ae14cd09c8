package memory

import (
	"context"
	"sort"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) ListJournalEntries(ctx context.Context, ownerUserID string, filter storage.JournalFilter, limit, offset int) ([]storage.JournalEntry, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []storage.JournalEntry
	for _, e := range m.journal {
		if e.OwnerUserID != ownerUserID || !matchesJournalFilter(e.Date, filter) {
			continue
		}
		e.Product = m.products[e.ProductID]
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return paginate(entries, limit, offset), len(entries), nil
}

// matchesJournalFilter compares YYYY-MM-DD strings, which order like dates.
func matchesJournalFilter(date string, f storage.JournalFilter) bool {
	if f.Date != "" {
		return date == f.Date
	}
	if f.From != "" && date < f.From {
		return false
	}
	if f.To != "" && date > f.To {
		return false
	}
	return true
}

func (m *MemoryStorage) GetJournalEntry(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.journal[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return nil, storage.ErrNotFound
	}
	e.Product = m.products[e.ProductID]
	return &e, nil
}

func (m *MemoryStorage) CreateJournalEntry(ctx context.Context, e *storage.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkJournalRefsLocked(e); err != nil {
		return err
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = m.now()
	e.UpdatedAt = e.CreatedAt

	stored := *e
	stored.Product = storage.Product{}
	m.journal[e.ID] = stored
	e.Product = m.products[e.ProductID]

	return nil
}

func (m *MemoryStorage) UpdateJournalEntry(ctx context.Context, e *storage.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.journal[e.ID]
	if !ok || existing.OwnerUserID != e.OwnerUserID {
		return storage.ErrNotFound
	}
	if err := m.checkJournalRefsLocked(e); err != nil {
		return err
	}

	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = m.now()

	stored := *e
	stored.Product = storage.Product{}
	m.journal[e.ID] = stored
	e.Product = m.products[e.ProductID]

	return nil
}

func (m *MemoryStorage) DeleteJournalEntry(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.journal[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return storage.ErrNotFound
	}
	delete(m.journal, id)
	return nil
}

func (m *MemoryStorage) checkJournalRefsLocked(e *storage.JournalEntry) error {
	if _, ok := m.products[e.ProductID]; !ok {
		return storage.ErrNotFound
	}
	meal, ok := m.meals[e.MealID]
	if !ok || meal.OwnerUserID != e.OwnerUserID {
		return storage.ErrNotFound
	}
	return nil
}
