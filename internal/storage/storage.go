package storage

import (
	"context"
	"errors"
	"time"

	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrReferenced is returned when deleting a row other rows still point to.
	ErrReferenced = errors.New("still referenced")
)

// User is an account able to log in with a password.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Picture      string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Product is a food item identified by its barcode. Nutrients are given for
// Amount of Unit.
type Product struct {
	ID        uuid.UUID
	Barcode   string
	Name      string
	Amount    float64
	Unit      nutrition.Unit
	Picture   string
	ObjectKey string
	Protein   float64
	Fat       float64
	Carbons   float64
	AddedBy   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Nutrition returns the reference values used by the calculator.
func (p Product) Nutrition() nutrition.Product {
	return nutrition.Product{
		Amount:  p.Amount,
		Unit:    p.Unit,
		Protein: p.Protein,
		Fat:     p.Fat,
		Carbons: p.Carbons,
	}
}

// FridgeItem is a product a user keeps at home. CurrentAmount and Threshold
// are in the product's own unit.
type FridgeItem struct {
	ID               uuid.UUID
	OwnerUserID      string
	ProductID        uuid.UUID
	CurrentAmount    float64
	Threshold        float64
	IsOnShoppingList bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Product is filled on reads.
	Product Product
}

// FridgeFilter narrows ListFridgeItems.
type FridgeFilter struct {
	OnShoppingList *bool
	BelowThreshold bool
	ProductName    string // case-insensitive substring
}

// Meal is a named slot of the day (breakfast, lunch...) with optional targets in grams.
type Meal struct {
	ID             uuid.UUID
	OwnerUserID    string
	Name           string
	Position       int
	TargetProteins *float64
	TargetFat      *float64
	TargetCarbons  *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// JournalEntry records an amount of a product eaten at a meal. Amount is in
// the product's own unit.
type JournalEntry struct {
	ID          uuid.UUID
	OwnerUserID string
	Date        string // YYYY-MM-DD
	MealID      uuid.UUID
	ProductID   uuid.UUID
	Amount      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Product is filled on reads.
	Product Product
}

// JournalFilter narrows ListJournalEntries. Date wins over From/To.
type JournalFilter struct {
	Date string
	From string // inclusive
	To   string // inclusive
}

// UsersStorage stores accounts.
type UsersStorage interface {
	// CreateUser returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// ProductsStorage stores the shared product catalogue.
type ProductsStorage interface {
	// ListProducts returns a page ordered by name and the total count.
	ListProducts(ctx context.Context, limit, offset int) ([]Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	// CreateProduct returns ErrAlreadyExists when the barcode is taken.
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	// DeleteProduct also removes fridge items and journal entries of the product.
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// FridgeStorage stores per-user fridge contents.
type FridgeStorage interface {
	ListFridgeItems(ctx context.Context, ownerUserID string, filter FridgeFilter, limit, offset int) ([]FridgeItem, int, error)
	GetFridgeItem(ctx context.Context, ownerUserID string, id uuid.UUID) (*FridgeItem, error)
	// CreateFridgeItem returns ErrAlreadyExists when the owner already keeps the product.
	CreateFridgeItem(ctx context.Context, item *FridgeItem) error
	UpdateFridgeItem(ctx context.Context, item *FridgeItem) error
	DeleteFridgeItem(ctx context.Context, ownerUserID string, id uuid.UUID) error
}

// MealsStorage stores user meals.
type MealsStorage interface {
	// ListMeals returns meals ordered by position.
	ListMeals(ctx context.Context, ownerUserID string) ([]Meal, error)
	GetMeal(ctx context.Context, ownerUserID string, id uuid.UUID) (*Meal, error)
	// CreateMeals inserts all meals or none.
	CreateMeals(ctx context.Context, meals []*Meal) error
	UpdateMeal(ctx context.Context, m *Meal) error
	// DeleteMeal returns ErrReferenced when journal entries use the meal.
	DeleteMeal(ctx context.Context, ownerUserID string, id uuid.UUID) error
}

// JournalStorage stores eaten products.
type JournalStorage interface {
	// ListJournalEntries returns entries newest first. limit <= 0 means no limit.
	ListJournalEntries(ctx context.Context, ownerUserID string, filter JournalFilter, limit, offset int) ([]JournalEntry, int, error)
	GetJournalEntry(ctx context.Context, ownerUserID string, id uuid.UUID) (*JournalEntry, error)
	CreateJournalEntry(ctx context.Context, e *JournalEntry) error
	UpdateJournalEntry(ctx context.Context, e *JournalEntry) error
	DeleteJournalEntry(ctx context.Context, ownerUserID string, id uuid.UUID) error
}

// Storage is implemented by the memory and postgres backends.
type Storage interface {
	UsersStorage
	ProductsStorage
	FridgeStorage
	MealsStorage
	JournalStorage

	// Close releases the connection pool (postgres).
	Close() error
}
