// Package reference mirrors accounting reference data (customers, items, tax
// codes, tax rates, terms, accounts, payment methods) per tenant.
package reference

import (
	"context"
	"sync"

	"github.com/smallbiznis/invoicedesk/internal/accounting"
)

// Entity is any reference record addressable by its accounting id.
type Entity interface {
	EntityID() string
}

// Loader fetches the full list of one resource type.
type Loader[T Entity] func(ctx context.Context, auth accounting.Auth) ([]T, error)

// State is the observable snapshot of a cache.
type State[T Entity] struct {
	Data    []T   `json:"data"`
	Loading bool  `json:"loading"`
	Err     error `json:"-"`
	Fetched bool  `json:"fetched"`
}

// Cache holds one resource type for one tenant. Fetch populates lazily, Refetch
// always reloads, UpdateItem patches a single record in place.
type Cache[T Entity] struct {
	load Loader[T]

	loadMu sync.Mutex // serializes loads
	mu     sync.RWMutex
	state  State[T]
}

func NewCache[T Entity](load Loader[T]) *Cache[T] {
	return &Cache[T]{load: load, state: State[T]{Data: []T{}}}
}

// Fetch returns cached data, loading it first if nothing has been fetched yet.
func (c *Cache[T]) Fetch(ctx context.Context, auth accounting.Auth) ([]T, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.RLock()
	if c.state.Fetched {
		data := c.state.Data
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	return c.reload(ctx, auth)
}

// Refetch reloads unconditionally.
func (c *Cache[T]) Refetch(ctx context.Context, auth accounting.Auth) ([]T, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	return c.reload(ctx, auth)
}

// reload keeps the previous data on failure so a transient error does not blank the UI.
func (c *Cache[T]) reload(ctx context.Context, auth accounting.Auth) ([]T, error) {
	c.mu.Lock()
	c.state.Loading = true
	c.mu.Unlock()

	data, err := c.load(ctx, auth)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.state.Err = err
		return nil, err
	}
	if data == nil {
		data = []T{}
	}
	c.state.Data = data
	c.state.Err = nil
	c.state.Fetched = true
	return data, nil
}

// UpdateItem applies patch to the cached record with the given id. It reports
// false when the record is not cached; nothing is sent upstream.
func (c *Cache[T]) UpdateItem(id string, patch func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.state.Data {
		if c.state.Data[i].EntityID() != id {
			continue
		}
		updated := append([]T(nil), c.state.Data...)
		patch(&updated[i])
		c.state.Data = updated
		return true
	}
	return false
}

// Upsert replaces the record with the same id or appends it.
func (c *Cache[T]) Upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	updated := make([]T, 0, len(c.state.Data)+1)
	replaced := false
	for _, existing := range c.state.Data {
		if existing.EntityID() == item.EntityID() {
			updated = append(updated, item)
			replaced = true
			continue
		}
		updated = append(updated, existing)
	}
	if !replaced {
		updated = append(updated, item)
	}
	c.state.Data = updated
}

// Find returns the cached record with id without triggering a load.
func (c *Cache[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.state.Data {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Snapshot returns the current state. Data slices are replaced, never mutated, so
// the returned slice is safe to read.
func (c *Cache[T]) Snapshot() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}
