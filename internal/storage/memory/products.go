package memory

import (
	"context"
	"sort"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) ListProducts(ctx context.Context, limit, offset int) ([]storage.Product, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]storage.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].Barcode < products[j].Barcode
	})

	return paginate(products, limit, offset), len(products), nil
}

func (m *MemoryStorage) GetProduct(ctx context.Context, id uuid.UUID) (*storage.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStorage) GetProductByBarcode(ctx context.Context, barcode string) (*storage.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.productByBarcodeLocked(barcode); ok {
		return &p, nil
	}
	return nil, storage.ErrNotFound
}

func (m *MemoryStorage) CreateProduct(ctx context.Context, p *storage.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.productByBarcodeLocked(p.Barcode); taken {
		return storage.ErrAlreadyExists
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = *p

	return nil
}

func (m *MemoryStorage) UpdateProduct(ctx context.Context, p *storage.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.products[p.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if other, taken := m.productByBarcodeLocked(p.Barcode); taken && other.ID != p.ID {
		return storage.ErrAlreadyExists
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = m.now()
	m.products[p.ID] = *p

	return nil
}

func (m *MemoryStorage) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return storage.ErrNotFound
	}

	delete(m.products, id)
	for itemID, item := range m.fridge {
		if item.ProductID == id {
			delete(m.fridge, itemID)
		}
	}
	for entryID, e := range m.journal {
		if e.ProductID == id {
			delete(m.journal, entryID)
		}
	}

	return nil
}

func (m *MemoryStorage) productByBarcodeLocked(barcode string) (storage.Product, bool) {
	for _, p := range m.products {
		if p.Barcode == barcode {
			return p, true
		}
	}
	return storage.Product{}, false
}
