package apiclient

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/fdg312/fridge-journal/internal/journal"
	"github.com/fdg312/fridge-journal/internal/nutrition"
)

var (
	ErrEntryNotCached  = errors.New("entry not in cached day")
	ErrMutationSettled = errors.New("mutation already settled")
	ErrInvalidAmount   = errors.New("amount must be a non-negative number")
)

type MutationState string

const (
	MutationPending    MutationState = "pending"
	MutationCommitted  MutationState = "committed"
	MutationRolledBack MutationState = "rolled_back"
)

// Mutation is an optimistic amount change applied to a DayCache before the
// server confirmed it.
type Mutation struct {
	EntryID string
	Amount  float64 // product native unit

	cache    *DayCache
	previous journal.Element
	prior    *Mutation // the entry's newest edit when this one was applied
	state    MutationState
}

func (m *Mutation) State() MutationState {
	m.cache.mu.Lock()
	defer m.cache.mu.Unlock()
	return m.state
}

// Commit marks the change as accepted by the server.
func (m *Mutation) Commit() error {
	m.cache.mu.Lock()
	defer m.cache.mu.Unlock()
	if m.state != MutationPending {
		return ErrMutationSettled
	}
	m.state = MutationCommitted
	return nil
}

// Rollback undoes this mutation and recomputes the totals. The element is
// only restored while m is the newest live edit of its entry: a later
// pending or committed edit keeps its value. Rolled back edits directly
// before m are undone with it. If the entry left the cache meanwhile only
// the state changes.
func (m *Mutation) Rollback() error {
	c := m.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.state != MutationPending {
		return ErrMutationSettled
	}
	m.state = MutationRolledBack

	if c.latest[m.EntryID] != m {
		return nil
	}
	oldest := m
	for oldest.prior != nil && oldest.prior.state == MutationRolledBack {
		oldest = oldest.prior
	}
	if oldest.prior == nil {
		delete(c.latest, m.EntryID)
	} else {
		c.latest[m.EntryID] = oldest.prior
	}

	if el := c.find(m.EntryID); el != nil {
		*el = oldest.previous
		c.recompute()
	}
	return nil
}

// DayCache holds one journal day view and keeps its totals consistent with
// local amount edits.
type DayCache struct {
	mu     sync.Mutex
	day    journal.DayView
	latest map[string]*Mutation
}

func NewDayCache(day journal.DayView) *DayCache {
	return &DayCache{day: cloneDay(day), latest: make(map[string]*Mutation)}
}

// Day returns a copy of the cached view.
func (c *DayCache) Day() journal.DayView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneDay(c.day)
}

// Replace swaps in a fresh server view. Pending mutations keep their state
// but no longer restore elements when rolled back.
func (c *DayCache) Replace(day journal.DayView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = cloneDay(day)
	clear(c.latest)
}

// ApplyAmount sets an entry amount locally. An empty unit means the
// product's unit.
func (c *DayCache) ApplyAmount(entryID string, amount float64, unit nutrition.Unit) (*Mutation, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el := c.find(entryID)
	if el == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotCached, entryID)
	}

	p := el.Product.Nutrition()
	if unit == "" {
		unit = p.Unit
	}
	native, err := nutrition.ToProductUnit(amount, unit, p)
	if err != nil {
		return nil, err
	}

	m := &Mutation{
		EntryID:  entryID,
		Amount:   native,
		cache:    c,
		previous: *el,
		prior:    c.latest[entryID],
		state:    MutationPending,
	}
	c.latest[entryID] = m
	setElementAmount(el, native)
	c.recompute()
	return m, nil
}

func (c *DayCache) find(entryID string) *journal.Element {
	for mi := range c.day.Meals {
		for ei := range c.day.Meals[mi].Elements {
			if c.day.Meals[mi].Elements[ei].EntryID == entryID {
				return &c.day.Meals[mi].Elements[ei]
			}
		}
	}
	return nil
}

func (c *DayCache) recompute() {
	var all []nutrition.MealElement
	for mi := range c.day.Meals {
		meal := &c.day.Meals[mi]
		elements := make([]nutrition.MealElement, len(meal.Elements))
		for i, el := range meal.Elements {
			elements[i] = nutrition.MealElement{Product: el.Product.Nutrition(), Amount: el.Amount}
		}
		meal.Totals = nutrition.Aggregate(elements)
		meal.Kcal = meal.Totals.Kcal()
		all = append(all, elements...)
	}
	c.day.Totals = nutrition.Aggregate(all)
	c.day.Kcal = c.day.Totals.Kcal()
}

func setElementAmount(el *journal.Element, native float64) {
	n := nutrition.Aggregate([]nutrition.MealElement{{Product: el.Product.Nutrition(), Amount: native}})
	el.Amount = native
	el.Display = nutrition.Normalize(native, el.Product.Unit)
	el.Nutrients = n
	el.Kcal = n.Kcal()
}

func cloneDay(day journal.DayView) journal.DayView {
	out := day
	out.Meals = make([]journal.MealView, len(day.Meals))
	for i, m := range day.Meals {
		out.Meals[i] = m
		out.Meals[i].Elements = append([]journal.Element(nil), m.Elements...)
		if m.Targets != nil {
			t := *m.Targets
			out.Meals[i].Targets = &t
		}
	}
	return out
}
