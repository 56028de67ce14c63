// Package cart implements the order composition model: a list of line items
// keyed by (menu item ID, sent-to-kitchen flag) with merge-by-id additions,
// a combined pricing view, and decimal money math.
package cart

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spicepos/terminal/internal/backend"
)

// DefaultTaxRate is the GST percentage applied to order subtotals. The
// restaurant settings carry their own taxRate field, but order pricing has
// always used this fixed rate; see DESIGN.md before changing that.
var DefaultTaxRate = decimal.NewFromInt(5)

// Errors returned by cart mutations.
var (
	ErrLineNotFound = errors.New("line not found")
	ErrLineSent     = errors.New("line already sent to kitchen")
	ErrTableSet     = errors.New("cart is already bound to a table")
)

// Line is a single cart row. For a given (ID, SentToKitchen) pair at most one
// Line exists in a cart; additions merge by incrementing Quantity. Price and
// Department are snapshots taken from the menu item at add time.
type Line struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	Quantity      int
	SentToKitchen bool
	Department    string
	Category      string
}

// Totals is the priced view of a cart, computed over combined items. TaxRate
// is the percentage the Tax figure was computed with, so documents can label
// the tax line without guessing.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	TaxRate  decimal.Decimal
}

// Cart holds one in-progress order. Safe for concurrent use.
type Cart struct {
	ID        uuid.UUID
	OrderType string
	TableID   string
	TableName string

	mu      sync.Mutex
	taxRate decimal.Decimal
	lines   []Line

	// heldRefs lists invoice numbers of held orders recalled into this cart.
	// Their queue entries stay parked until this cart is billed or re-held.
	heldRefs []string
}

// New creates an empty cart for the given order type.
func New(orderType string) *Cart {
	return &Cart{
		ID:        uuid.New(),
		OrderType: orderType,
		taxRate:   DefaultTaxRate,
	}
}

// BindTable attaches the cart to a dine-in table. Rebinding an already bound
// cart is rejected; callers start a new cart per table selection.
func (c *Cart) BindTable(tableID, tableName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TableID != "" && c.TableID != tableID {
		return ErrTableSet
	}
	c.TableID = tableID
	c.TableName = tableName
	return nil
}

// AddItem merges the menu item into the pending portion of the cart: if a
// pending line with the same ID exists its quantity is incremented, otherwise
// a new pending line is appended with quantity 1. Price and department are
// copied from the menu item now and never re-fetched.
func (c *Cart) AddItem(item backend.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ID == item.ID && !c.lines[i].SentToKitchen {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{
		ID:         item.ID,
		Name:       item.Name,
		Price:      decimal.NewFromFloat(item.Price),
		Quantity:   1,
		Department: item.Department,
		Category:   item.Category,
	})
}

// UpdateQuantity adjusts the quantity of the line matching (id, sent) by
// delta, clamping at zero and removing the line when it empties. Sent lines
// are immutable and return ErrLineSent.
func (c *Cart) UpdateQuantity(id string, delta int, sent bool) error {
	if sent {
		return ErrLineSent
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ID != id || c.lines[i].SentToKitchen {
			continue
		}
		q := c.lines[i].Quantity + delta
		if q <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = q
		}
		return nil
	}
	return ErrLineNotFound
}

// RemoveLine deletes the line matching (id, sent) outright. Sent lines are
// immutable and return ErrLineSent.
func (c *Cart) RemoveLine(id string, sent bool) error {
	if sent {
		return ErrLineSent
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ID == id && !c.lines[i].SentToKitchen {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// MarkPendingSent flips every pending line to sent. A flipped line merges
// into an existing sent line with the same ID so the (id, sent) uniqueness
// invariant holds. The flip is one-way; there is no inverse operation.
func (c *Cart) MarkPendingSent() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var merged []Line
	sentIdx := make(map[string]int)
	for _, l := range c.lines {
		if l.SentToKitchen {
			sentIdx[l.ID] = len(merged)
			merged = append(merged, l)
		}
	}
	for _, l := range c.lines {
		if l.SentToKitchen {
			continue
		}
		if i, ok := sentIdx[l.ID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		l.SentToKitchen = true
		sentIdx[l.ID] = len(merged)
		merged = append(merged, l)
	}
	c.lines = merged
}

// Restore replaces the cart content, used when loading an open table order
// back into a terminal cart. Lines are copied.
func (c *Cart) Restore(lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append([]Line(nil), lines...)
}

// Clear empties the cart and detaches any recalled held orders. The queue
// entries themselves are untouched.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.heldRefs = nil
}

// AttachHeldRef records that the held order with this invoice number was
// recalled into the cart. Attaching the same number twice is a no-op.
func (c *Cart) AttachHeldRef(invoiceNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range c.heldRefs {
		if ref == invoiceNumber {
			return
		}
	}
	c.heldRefs = append(c.heldRefs, invoiceNumber)
}

// HeldRefs returns the invoice numbers of held orders recalled into the cart,
// in recall order.
func (c *Cart) HeldRefs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.heldRefs...)
}

// Lines returns a snapshot of all lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// PendingItems returns the lines not yet sent to the kitchen; these are what
// a new KOT round covers.
func (c *Cart) PendingItems() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	var pending []Line
	for _, l := range c.lines {
		if !l.SentToKitchen {
			pending = append(pending, l)
		}
	}
	return pending
}

// CombinedItems merges pending and sent lines with the same ID, summing
// quantities. Billing and pricing always work over this view, never the raw
// line list. First-seen order is preserved.
func (c *Cart) CombinedItems() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return combine(c.lines)
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Totals prices the combined view: subtotal is Σ(price×quantity), tax is the
// cart's rate applied to the subtotal rounded to 2 places, total is their sum.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return priceLines(combine(c.lines), c.taxRate)
}

// Combine merges lines with the same ID regardless of sent state, summing
// quantities and preserving first-seen order. The result carries sent flags
// from the first occurrence and is only meaningful as a pricing or display
// view.
func Combine(lines []Line) []Line {
	return combine(lines)
}

func combine(lines []Line) []Line {
	var out []Line
	idx := make(map[string]int)
	for _, l := range lines {
		if i, ok := idx[l.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}

// PriceLines computes totals for an arbitrary combined item list using the
// default tax rate. The hold queue uses this when merging recalled orders.
func PriceLines(lines []Line) Totals {
	return priceLines(combine(lines), DefaultTaxRate)
}

func priceLines(combined []Line, rate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range combined {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	tax := subtotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
		TaxRate:  rate,
	}
}
