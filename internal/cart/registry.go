package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the live carts of a terminal, keyed by cart ID.
type Registry struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[uuid.UUID]*Cart)}
}

// Create starts a new cart for the given order type and registers it.
func (r *Registry) Create(orderType string) *Cart {
	c := New(orderType)
	r.mu.Lock()
	r.carts[c.ID] = c
	r.mu.Unlock()
	return c
}

// Get returns the cart with the given ID, or nil.
func (r *Registry) Get(id uuid.UUID) *Cart {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.carts[id]
}

// Drop removes the cart from the registry once its order is billed or
// abandoned.
func (r *Registry) Drop(id uuid.UUID) {
	r.mu.Lock()
	delete(r.carts, id)
	r.mu.Unlock()
}
