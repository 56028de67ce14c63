// Package catalog keeps read caches of the menu and table registry. The
// backend owns the data; Refresh pulls the latest and reads return snapshot
// copies so handlers never hold the lock across a response write.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spicepos/terminal/internal/backend"
)

// ErrUnknownMenuItem is returned when a cart references an item that is not
// in the loaded menu.
var ErrUnknownMenuItem = errors.New("unknown menu item")

// Fetcher defines the backend reads the catalog needs.
// Satisfied by *backend.Client; narrow interface for testability.
type Fetcher interface {
	ListMenuItems(ctx context.Context) ([]backend.MenuItem, error)
	ListCategories(ctx context.Context) ([]backend.Category, error)
	ListDepartments(ctx context.Context) ([]backend.Department, error)
	ListTables(ctx context.Context) ([]backend.Table, error)
}

// Catalog is the terminal's view of menu items, categories, departments and
// tables.
type Catalog struct {
	fetcher Fetcher

	mu          sync.RWMutex
	menuItems   []backend.MenuItem
	menuByID    map[string]backend.MenuItem
	categories  []backend.Category
	departments []backend.Department
	tables      []backend.Table
}

func New(fetcher Fetcher) *Catalog {
	return &Catalog{
		fetcher:  fetcher,
		menuByID: make(map[string]backend.MenuItem),
	}
}

// Refresh replaces every cache with the backend's current state.
func (c *Catalog) Refresh(ctx context.Context) error {
	items, err := c.fetcher.ListMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("refresh menu: %w", err)
	}
	categories, err := c.fetcher.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("refresh categories: %w", err)
	}
	departments, err := c.fetcher.ListDepartments(ctx)
	if err != nil {
		return fmt.Errorf("refresh departments: %w", err)
	}
	tables, err := c.fetcher.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("refresh tables: %w", err)
	}

	byID := make(map[string]backend.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	c.mu.Lock()
	c.menuItems = items
	c.menuByID = byID
	c.categories = categories
	c.departments = departments
	c.tables = tables
	c.mu.Unlock()
	return nil
}

// MenuItem looks up a menu item by ID.
func (c *Catalog) MenuItem(id string) (backend.MenuItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.menuByID[id]
	if !ok {
		return backend.MenuItem{}, ErrUnknownMenuItem
	}
	return item, nil
}

func (c *Catalog) MenuItems() []backend.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]backend.MenuItem(nil), c.menuItems...)
}

func (c *Catalog) Categories() []backend.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]backend.Category(nil), c.categories...)
}

func (c *Catalog) Departments() []backend.Department {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]backend.Department(nil), c.departments...)
}

func (c *Catalog) Tables() []backend.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]backend.Table(nil), c.tables...)
}

// Table looks up a table by ID.
func (c *Catalog) Table(id string) (backend.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tables {
		if t.ID == id {
			return t, true
		}
	}
	return backend.Table{}, false
}

// SetTableStatus updates the cached status flag for one table. The session
// layer calls this after backend mutations so occupied ⇔ open-order stays
// consistent without a full refresh.
func (c *Catalog) SetTableStatus(id, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tables {
		if c.tables[i].ID == id {
			c.tables[i].Status = status
			return
		}
	}
}
