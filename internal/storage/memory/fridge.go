package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) ListFridgeItems(ctx context.Context, ownerUserID string, filter storage.FridgeFilter, limit, offset int) ([]storage.FridgeItem, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name := strings.ToLower(strings.TrimSpace(filter.ProductName))

	var items []storage.FridgeItem
	for _, item := range m.fridge {
		if item.OwnerUserID != ownerUserID {
			continue
		}
		if filter.OnShoppingList != nil && item.IsOnShoppingList != *filter.OnShoppingList {
			continue
		}
		if filter.BelowThreshold && item.CurrentAmount >= item.Threshold {
			continue
		}
		item.Product = m.products[item.ProductID]
		if name != "" && !strings.Contains(strings.ToLower(item.Product.Name), name) {
			continue
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Product.Name != items[j].Product.Name {
			return items[i].Product.Name < items[j].Product.Name
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	return paginate(items, limit, offset), len(items), nil
}

func (m *MemoryStorage) GetFridgeItem(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.FridgeItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.fridge[id]
	if !ok || item.OwnerUserID != ownerUserID {
		return nil, storage.ErrNotFound
	}
	item.Product = m.products[item.ProductID]
	return &item, nil
}

func (m *MemoryStorage) CreateFridgeItem(ctx context.Context, item *storage.FridgeItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[item.ProductID]
	if !ok {
		return storage.ErrNotFound
	}
	for _, existing := range m.fridge {
		if existing.OwnerUserID == item.OwnerUserID && existing.ProductID == item.ProductID {
			return storage.ErrAlreadyExists
		}
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = m.now()
	item.UpdatedAt = item.CreatedAt
	item.Product = storage.Product{}
	m.fridge[item.ID] = *item
	item.Product = product

	return nil
}

func (m *MemoryStorage) UpdateFridgeItem(ctx context.Context, item *storage.FridgeItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.fridge[item.ID]
	if !ok || existing.OwnerUserID != item.OwnerUserID {
		return storage.ErrNotFound
	}

	// Product and owner are fixed once the item exists.
	existing.CurrentAmount = item.CurrentAmount
	existing.Threshold = item.Threshold
	existing.IsOnShoppingList = item.IsOnShoppingList
	existing.UpdatedAt = m.now()
	m.fridge[item.ID] = existing

	*item = existing
	item.Product = m.products[item.ProductID]
	return nil
}

func (m *MemoryStorage) DeleteFridgeItem(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.fridge[id]
	if !ok || item.OwnerUserID != ownerUserID {
		return storage.ErrNotFound
	}
	delete(m.fridge, id)
	return nil
}
