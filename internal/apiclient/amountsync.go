package apiclient

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/nutrition"
)

// AmountSync applies amount edits to a DayCache immediately and pushes the
// last edit per entry to the server after the debounce delay. A failed push
// rolls back every edit it covered.
type AmountSync struct {
	client    *Client
	cache     *DayCache
	debouncer *Debouncer
	logger    zerolog.Logger

	mu      sync.Mutex
	pending map[string][]*Mutation
	wg      sync.WaitGroup

	// OnSettled, when set, is called after each push with its result.
	OnSettled func(entryID string, err error)
}

func NewAmountSync(client *Client, cache *DayCache, delay time.Duration) *AmountSync {
	return &AmountSync{
		client:    client,
		cache:     cache,
		debouncer: NewDebouncer(delay),
		logger:    client.logger,
		pending:   make(map[string][]*Mutation),
	}
}

// SetAmount updates the cached day and schedules the remote update.
func (s *AmountSync) SetAmount(ctx context.Context, entryID string, amount float64, unit nutrition.Unit) (*Mutation, error) {
	m, err := s.cache.ApplyAmount(entryID, amount, unit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.wg.Add(1)
	s.pending[entryID] = append(s.pending[entryID], m)
	s.mu.Unlock()

	s.debouncer.Do(entryID, func() {
		s.push(ctx, entryID, m.Amount)
	})
	return m, nil
}

// Wait blocks until every edit has been committed or rolled back.
func (s *AmountSync) Wait() {
	s.wg.Wait()
}

func (s *AmountSync) push(ctx context.Context, entryID string, native float64) {
	s.mu.Lock()
	batch := s.pending[entryID]
	delete(s.pending, entryID)
	s.mu.Unlock()

	defer s.wg.Add(-len(batch))

	// Amounts are sent in the product unit, which is what the cache stores.
	_, err := s.client.UpdateEntryAmount(ctx, entryID, native, "")
	if err != nil {
		s.logger.Warn().Err(err).Str("entry_id", entryID).Int("edits", len(batch)).Msg("amount update failed, rolling back")
		for i := len(batch) - 1; i >= 0; i-- {
			_ = batch[i].Rollback()
		}
	} else {
		for _, m := range batch {
			_ = m.Commit()
		}
	}

	if s.OnSettled != nil {
		s.OnSettled(entryID, err)
	}
}

// Stop cancels pushes that have not fired yet and rolls their edits back.
func (s *AmountSync) Stop() {
	s.debouncer.Stop()

	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string][]*Mutation)
	s.mu.Unlock()

	for _, batch := range pending {
		for i := len(batch) - 1; i >= 0; i-- {
			_ = batch[i].Rollback()
		}
		s.wg.Add(-len(batch))
	}
}
