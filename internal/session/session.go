// Package session tracks open dine-in table orders. The backend owns the
// order state; this layer serializes the add-then-mark-sent sequence per
// table and keeps a cache of the last authoritative response so table views
// render without a round trip.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/spicepos/terminal/internal/backend"
	"github.com/spicepos/terminal/internal/cart"
)

var ErrNoOpenOrder = errors.New("no open order for table")

// OrderClient defines the backend calls the session layer makes.
// Satisfied by *backend.Client; narrow interface for testability.
type OrderClient interface {
	GetTableOrder(ctx context.Context, tableID string) (*backend.TableOrder, error)
	AddItemsToTable(ctx context.Context, tableID, tableName string, items []backend.OrderItem) (*backend.TableOrder, error)
	MarkItemsAsSent(ctx context.Context, tableID string) (*backend.TableOrder, error)
	CompleteTableOrder(ctx context.Context, tableID string) error
}

// Manager is the terminal's view of open table orders.
type Manager struct {
	client OrderClient

	mu     sync.Mutex
	orders map[string]*backend.TableOrder
	locks  map[string]*sync.Mutex
}

func NewManager(client OrderClient) *Manager {
	return &Manager{
		client: client,
		orders: make(map[string]*backend.TableOrder),
		locks:  make(map[string]*sync.Mutex),
	}
}

// tableLock returns the mutex serializing backend mutations for one table.
// Without it, two terminals adding through this service could interleave
// add and mark-sent, flagging items that were never printed on a ticket.
func (m *Manager) tableLock(tableID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[tableID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[tableID] = l
	}
	return l
}

func (m *Manager) cache(tableID string, order *backend.TableOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order == nil {
		delete(m.orders, tableID)
		return
	}
	m.orders[tableID] = order
}

// Load fetches the table's open order from the backend and caches it.
// Returns ErrNoOpenOrder when the table is free.
func (m *Manager) Load(ctx context.Context, tableID string) (*backend.TableOrder, error) {
	order, err := m.client.GetTableOrder(ctx, tableID)
	if err != nil {
		return nil, err
	}
	m.cache(tableID, order)
	if order == nil {
		return nil, ErrNoOpenOrder
	}
	return order, nil
}

// Cached returns the last known order for the table without hitting the
// backend.
func (m *Manager) Cached(tableID string) (*backend.TableOrder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[tableID]
	return order, ok
}

// SendItems appends the pending lines to the table's open order and marks the
// whole order sent, in that sequence, under the table's lock. The returned
// order is the backend's state after both mutations.
func (m *Manager) SendItems(ctx context.Context, tableID, tableName string, pending []cart.Line) (*backend.TableOrder, error) {
	if len(pending) == 0 {
		return nil, errors.New("no pending items to send")
	}

	l := m.tableLock(tableID)
	l.Lock()
	defer l.Unlock()

	if _, err := m.client.AddItemsToTable(ctx, tableID, tableName, LinesToItems(pending)); err != nil {
		return nil, fmt.Errorf("add items: %w", err)
	}
	order, err := m.client.MarkItemsAsSent(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("mark sent: %w", err)
	}
	m.cache(tableID, order)
	return order, nil
}

// Complete closes the table's open order and drops the cache entry.
func (m *Manager) Complete(ctx context.Context, tableID string) error {
	l := m.tableLock(tableID)
	l.Lock()
	defer l.Unlock()

	if err := m.client.CompleteTableOrder(ctx, tableID); err != nil {
		return err
	}
	m.cache(tableID, nil)
	return nil
}

// --- Conversions ---

// LinesToItems converts cart lines to backend order items.
func LinesToItems(lines []cart.Line) []backend.OrderItem {
	items := make([]backend.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = backend.OrderItem{
			ID:            l.ID,
			Name:          l.Name,
			Price:         l.Price.InexactFloat64(),
			Category:      l.Category,
			Department:    l.Department,
			Quantity:      l.Quantity,
			SentToKitchen: l.SentToKitchen,
		}
	}
	return items
}

// ItemsToLines converts backend order items to cart lines.
func ItemsToLines(items []backend.OrderItem) []cart.Line {
	lines := make([]cart.Line, len(items))
	for i, it := range items {
		lines[i] = cart.Line{
			ID:            it.ID,
			Name:          it.Name,
			Price:         decimal.NewFromFloat(it.Price),
			Quantity:      it.Quantity,
			SentToKitchen: it.SentToKitchen,
			Department:    it.Department,
			Category:      it.Category,
		}
	}
	return lines
}
