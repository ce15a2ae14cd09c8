package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

var _ storage.Storage = (*MemoryStorage)(nil)

// MemoryStorage is the in-memory storage.Storage used when no database is configured.
// A single lock guards every table so cascades stay consistent.
type MemoryStorage struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]storage.User
	products map[uuid.UUID]storage.Product
	fridge   map[uuid.UUID]storage.FridgeItem
	meals    map[uuid.UUID]storage.Meal
	journal  map[uuid.UUID]storage.JournalEntry

	now func() time.Time
}

// New creates an empty MemoryStorage.
func New() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[uuid.UUID]storage.User),
		products: make(map[uuid.UUID]storage.Product),
		fridge:   make(map[uuid.UUID]storage.FridgeItem),
		meals:    make(map[uuid.UUID]storage.Meal),
		journal:  make(map[uuid.UUID]storage.JournalEntry),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) CreateUser(ctx context.Context, u *storage.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return storage.ErrAlreadyExists
		}
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u

	return nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

// paginate slices items by limit/offset. limit <= 0 returns everything after offset.
func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
