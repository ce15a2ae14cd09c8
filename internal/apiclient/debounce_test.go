package apiclient

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerRunsLastCallOnce(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var calls []int
	for i := 1; i <= 5; i++ {
		i := i
		d.Do("e1", func() {
			mu.Lock()
			calls = append(calls, i)
			mu.Unlock()
		})
	}
	assert.Equal(t, 1, d.Pending())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{5}, calls)
	mu.Unlock()
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	seen := map[string]int{}
	for _, key := range []string{"a", "b", "a"} {
		key := key
		d.Do(key, func() {
			mu.Lock()
			seen[key]++
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["a"] == 1 && seen["b"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	fired := make(chan struct{}, 1)
	d.Do("a", func() { fired <- struct{}{} })
	d.Stop()

	select {
	case <-fired:
		t.Fatal("stopped call fired")
	case <-time.After(60 * time.Millisecond):
	}
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerDefaultDelay(t *testing.T) {
	assert.Equal(t, DefaultDebounceDelay, NewDebouncer(0).delay)
}
