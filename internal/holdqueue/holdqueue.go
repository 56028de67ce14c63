// Package holdqueue parks takeaway orders so the terminal can serve the next
// customer and recall the parked order later. The queue is in-memory only; a
// terminal restart drops held orders.
package holdqueue

import (
	"errors"
	"sync"
	"time"

	"github.com/spicepos/terminal/internal/cart"
)

var ErrNotFound = errors.New("held order not found")

// HeldOrder is a parked takeaway order. Items carry their price snapshots so
// recall does not consult the menu again.
type HeldOrder struct {
	InvoiceNumber string
	CustomerName  string
	Items         []cart.Line
	Totals        cart.Totals
	HeldAt        time.Time
}

// Queue holds parked orders keyed by invoice number, preserving hold order.
type Queue struct {
	mu     sync.Mutex
	orders []HeldOrder
}

func New() *Queue {
	return &Queue{}
}

// Hold parks the order. Holding the same invoice number again replaces the
// earlier entry in place, so the queue never carries duplicates.
func (q *Queue) Hold(order HeldOrder) {
	order.Items = append([]cart.Line(nil), order.Items...)
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.orders {
		if q.orders[i].InvoiceNumber == order.InvoiceNumber {
			q.orders[i] = order
			return
		}
	}
	q.orders = append(q.orders, order)
}

// List returns a snapshot of the held orders, oldest first.
func (q *Queue) List() []HeldOrder {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]HeldOrder, len(q.orders))
	for i, o := range q.orders {
		out[i] = o
		out[i].Items = append([]cart.Line(nil), o.Items...)
	}
	return out
}

// Recall returns a copy of the order with the given invoice number. The
// entry stays queued; only billing removes it, so a recalled order that is
// never billed is not lost.
func (q *Queue) Recall(invoiceNumber string) (HeldOrder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, o := range q.orders {
		if o.InvoiceNumber == invoiceNumber {
			o.Items = append([]cart.Line(nil), o.Items...)
			return o, nil
		}
	}
	return HeldOrder{}, ErrNotFound
}

// Remove drops the order with the given invoice number. Called once the
// order's invoice has been recorded.
func (q *Queue) Remove(invoiceNumber string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, o := range q.orders {
		if o.InvoiceNumber == invoiceNumber {
			q.orders = append(q.orders[:i], q.orders[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Len reports the number of held orders.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.orders)
}

// Merge combines a recalled order's items with the items already in the
// current cart and reprices the result from scratch. Stored totals on the
// held order are discarded; tax is always recomputed from the merged
// subtotal, never summed across the two orders.
func Merge(held, current []cart.Line) ([]cart.Line, cart.Totals) {
	merged := cart.Combine(append(append([]cart.Line(nil), held...), current...))
	totals := cart.PriceLines(merged)
	return merged, totals
}
