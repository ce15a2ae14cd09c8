package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/journal"
)

type patchRecorder struct {
	mu      sync.Mutex
	amounts map[string][]float64
	fail    bool
}

func (p *patchRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /v1/journal/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req journal.UpdateEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "amount is required")
			return
		}
		p.mu.Lock()
		p.amounts[r.PathValue("id")] = append(p.amounts[r.PathValue("id")], *req.Amount)
		fail := p.fail
		p.mu.Unlock()

		if fail {
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, journal.EntryDTO{ID: r.PathValue("id"), Amount: *req.Amount})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (p *patchRecorder) sent(id string) []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.amounts[id]...)
}

func TestAmountSyncCommitsLastEdit(t *testing.T) {
	rec := &patchRecorder{amounts: map[string][]float64{}}
	srv := rec.server(t)
	cache := NewDayCache(testDay())
	s := NewAmountSync(New(srv.URL, nil), cache, 20*time.Millisecond)

	var settled []error
	s.OnSettled = func(_ string, err error) { settled = append(settled, err) }

	m1, err := s.SetAmount(context.Background(), "e1", 60, "")
	require.NoError(t, err)
	m2, err := s.SetAmount(context.Background(), "e1", 0.5, "kg")
	require.NoError(t, err)
	assert.Equal(t, 500.0, cache.Day().Meals[0].Elements[0].Amount, "applied before the server answers")

	s.Wait()
	assert.Equal(t, []float64{500}, rec.sent("e1"), "one request with the last amount")
	assert.Equal(t, MutationCommitted, m1.State())
	assert.Equal(t, MutationCommitted, m2.State())
	assert.Equal(t, []error{nil}, settled)
	assert.Equal(t, 500.0, cache.Day().Meals[0].Elements[0].Amount)
}

func TestAmountSyncRollsBackOnFailure(t *testing.T) {
	rec := &patchRecorder{amounts: map[string][]float64{}, fail: true}
	srv := rec.server(t)
	cache := NewDayCache(testDay())
	before := cache.Day()
	s := NewAmountSync(New(srv.URL, nil), cache, 20*time.Millisecond)

	m1, err := s.SetAmount(context.Background(), "e3", 10, "")
	require.NoError(t, err)
	m2, err := s.SetAmount(context.Background(), "e3", 20, "")
	require.NoError(t, err)

	s.Wait()
	assert.Equal(t, []float64{20}, rec.sent("e3"))
	assert.Equal(t, MutationRolledBack, m1.State())
	assert.Equal(t, MutationRolledBack, m2.State())
	assert.Equal(t, before.Meals[1].Elements[0], cache.Day().Meals[1].Elements[0])
	assert.InDelta(t, before.Kcal, cache.Day().Kcal, 1e-9)
}

func TestAmountSyncFailedSlowPushKeepsLaterCommit(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var (
		mu       sync.Mutex
		calls    int
		accepted []float64
	)
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /v1/journal/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req journal.UpdateEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "amount is required")
			return
		}
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			close(arrived)
			<-release
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}
		mu.Lock()
		accepted = append(accepted, *req.Amount)
		mu.Unlock()
		httpx.WriteJSON(w, http.StatusOK, journal.EntryDTO{ID: r.PathValue("id"), Amount: *req.Amount})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()

	cache := NewDayCache(testDay())
	s := NewAmountSync(New(srv.URL, nil), cache, 5*time.Millisecond)
	settled := make(chan error, 2)
	s.OnSettled = func(_ string, err error) { settled <- err }

	m1, err := s.SetAmount(context.Background(), "e1", 10, "")
	require.NoError(t, err)
	select {
	case <-arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("first update never reached the server")
	}

	m2, err := s.SetAmount(context.Background(), "e1", 30, "")
	require.NoError(t, err)
	select {
	case err := <-settled:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second update never settled")
	}
	assert.Equal(t, MutationCommitted, m2.State())

	close(release)
	s.Wait()
	assert.Error(t, <-settled)

	assert.Equal(t, MutationRolledBack, m1.State())
	mu.Lock()
	assert.Equal(t, []float64{30}, accepted)
	mu.Unlock()
	assert.Equal(t, 30.0, cache.Day().Meals[0].Elements[0].Amount, "cache matches the server")
}

func TestAmountSyncStopRollsBackUnsent(t *testing.T) {
	rec := &patchRecorder{amounts: map[string][]float64{}}
	srv := rec.server(t)
	cache := NewDayCache(testDay())
	s := NewAmountSync(New(srv.URL, nil), cache, time.Hour)

	m, err := s.SetAmount(context.Background(), "e1", 10, "")
	require.NoError(t, err)
	s.Stop()
	s.Wait()

	assert.Equal(t, MutationRolledBack, m.State())
	assert.Equal(t, 50.0, cache.Day().Meals[0].Elements[0].Amount)
	assert.Empty(t, rec.sent("e1"))
}

func TestAmountSyncRejectsUnknownEntry(t *testing.T) {
	s := NewAmountSync(New("http://unused", nil), NewDayCache(testDay()), time.Hour)
	_, err := s.SetAmount(context.Background(), "nope", 1, "")
	assert.ErrorIs(t, err, ErrEntryNotCached)
	s.Stop()
}
