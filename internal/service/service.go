// Package service orchestrates order placement, billing and printing across
// the cart model, the table sessions, the hold queue and the backend API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spicepos/terminal/internal/backend"
	"github.com/spicepos/terminal/internal/cart"
	"github.com/spicepos/terminal/internal/catalog"
	"github.com/spicepos/terminal/internal/docgen"
	"github.com/spicepos/terminal/internal/enum"
	"github.com/spicepos/terminal/internal/holdqueue"
	"github.com/spicepos/terminal/internal/printer"
	"github.com/spicepos/terminal/internal/session"
	"github.com/spicepos/terminal/internal/ws"
)

// Errors returned by the order service.
var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNoTable          = errors.New("cart has no table bound")
	ErrUnknownTable     = errors.New("unknown table")
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrNotTakeaway      = errors.New("operation requires a takeaway cart")
	ErrNotDineIn        = errors.New("operation requires a dine-in cart")
)

// ConfigClient defines the backend calls for invoices, print configs and
// restaurant settings. Satisfied by *backend.Client; narrow interface for
// testability.
type ConfigClient interface {
	CreateInvoice(ctx context.Context, inv backend.Invoice) (*backend.Invoice, error)
	GetKOTConfig(ctx context.Context) (*backend.KOTConfig, error)
	GetBillConfig(ctx context.Context) (*backend.BillConfig, error)
	GetRestaurantSettings(ctx context.Context) (*backend.RestaurantSettings, error)
}

// Printer dispatches rendered documents. Satisfied by *printer.Dispatcher.
type Printer interface {
	Dispatch(ctx context.Context, jobs []printer.Job) int
}

// Broadcaster fans events out to connected terminals. Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// OrderService handles order placement and billing business logic.
type OrderService struct {
	client   ConfigClient
	carts    *cart.Registry
	catalog  *catalog.Catalog
	sessions *session.Manager
	held     *holdqueue.Queue
	docs     *docgen.Generator
	printer  Printer
	hub      Broadcaster

	// now is swapped out in tests for stable document numbers.
	now func() time.Time
}

func NewOrderService(
	client ConfigClient,
	carts *cart.Registry,
	cat *catalog.Catalog,
	sessions *session.Manager,
	held *holdqueue.Queue,
	docs *docgen.Generator,
	p Printer,
	hub Broadcaster,
) *OrderService {
	return &OrderService{
		client:   client,
		carts:    carts,
		catalog:  cat,
		sessions: sessions,
		held:     held,
		docs:     docs,
		printer:  p,
		hub:      hub,
		now:      time.Now,
	}
}

func (s *OrderService) cart(id uuid.UUID) (*cart.Cart, error) {
	c := s.carts.Get(id)
	if c == nil {
		return nil, ErrCartNotFound
	}
	return c, nil
}

// OpenCart starts a cart for the given order type. Dine-in carts bind to a
// table and pick up the table's open order, so a waiter switching terminals
// sees the rounds already sent.
func (s *OrderService) OpenCart(ctx context.Context, orderType, tableID string) (*cart.Cart, error) {
	switch orderType {
	case enum.OrderTypeDineIn:
		if tableID == "" {
			return nil, ErrNoTable
		}
		table, ok := s.catalog.Table(tableID)
		if !ok {
			return nil, ErrUnknownTable
		}
		c := s.carts.Create(orderType)
		if err := c.BindTable(table.ID, table.Name); err != nil {
			s.carts.Drop(c.ID)
			return nil, err
		}
		order, err := s.sessions.Load(ctx, tableID)
		if err != nil && !errors.Is(err, session.ErrNoOpenOrder) {
			s.carts.Drop(c.ID)
			return nil, err
		}
		if order != nil {
			c.Restore(session.ItemsToLines(order.Items))
		}
		return c, nil
	case enum.OrderTypeTakeaway:
		return s.carts.Create(orderType), nil
	}
	return nil, ErrInvalidOrderType
}

// Cart returns the live cart with the given ID.
func (s *OrderService) Cart(cartID uuid.UUID) (*cart.Cart, error) {
	return s.cart(cartID)
}

// DropCart abandons a cart without touching the backend.
func (s *OrderService) DropCart(cartID uuid.UUID) {
	s.carts.Drop(cartID)
}

// AddItem adds one unit of the menu item to the cart, merging into an
// existing pending line for the same item.
func (s *OrderService) AddItem(cartID uuid.UUID, menuItemID string) (*cart.Cart, error) {
	c, err := s.cart(cartID)
	if err != nil {
		return nil, err
	}
	item, err := s.catalog.MenuItem(menuItemID)
	if err != nil {
		return nil, err
	}
	c.AddItem(item)
	return c, nil
}

// UpdateQuantity adjusts a pending line's quantity by delta.
func (s *OrderService) UpdateQuantity(cartID uuid.UUID, itemID string, delta int, sent bool) (*cart.Cart, error) {
	c, err := s.cart(cartID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateQuantity(itemID, delta, sent); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveLine deletes a pending line from the cart.
func (s *OrderService) RemoveLine(cartID uuid.UUID, itemID string, sent bool) (*cart.Cart, error) {
	c, err := s.cart(cartID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveLine(itemID, sent); err != nil {
		return nil, err
	}
	return c, nil
}

// PlaceResult reports what a placement did.
type PlaceResult struct {
	KOTNumber  string              `json:"kotNumber"`
	Printed    int                 `json:"printed"`
	Additional bool                `json:"additional"`
	Order      *backend.TableOrder `json:"order,omitempty"`
}

// PlaceDineInOrder sends the cart's pending items to the kitchen: the items
// are appended to the table's open order, marked sent on the backend, printed
// as kitchen tickets, and flipped to sent in the local cart. The table goes
// occupied and every terminal hears about it.
func (s *OrderService) PlaceDineInOrder(ctx context.Context, cartID uuid.UUID) (*PlaceResult, error) {
	c, err := s.cart(cartID)
	if err != nil {
		return nil, err
	}
	if c.OrderType != enum.OrderTypeDineIn {
		return nil, ErrNotDineIn
	}
	if c.TableID == "" {
		return nil, ErrNoTable
	}
	pending := c.PendingItems()
	if len(pending) == 0 {
		return nil, ErrEmptyCart
	}

	// A ticket for a table that already has sent items is a follow-up round;
	// the kitchen needs the banner to avoid cooking the whole order twice.
	additional := len(pending) < len(c.Lines())

	order, err := s.sessions.SendItems(ctx, c.TableID, c.TableName, pending)
	if err != nil {
		return nil, err
	}
	c.MarkPendingSent()

	kotNumber := fmt.Sprintf("KOT-%d", s.now().UnixMilli())
	printed := s.printKOT(ctx, kotNumber, pending, docgen.KOTMeta{
		Number:     kotNumber,
		OrderType:  c.OrderType,
		TableName:  c.TableName,
		Additional: additional,
	})

	s.catalog.SetTableStatus(c.TableID, enum.TableStatusOccupied)
	s.hub.Broadcast(ws.NewEvent("table.updated", map[string]string{
		"tableId": c.TableID,
		"status":  enum.TableStatusOccupied,
	}))
	s.hub.Broadcast(ws.NewEvent("order.placed", map[string]any{
		"tableId":   c.TableID,
		"kotNumber": kotNumber,
	}))

	return &PlaceResult{
		KOTNumber:  kotNumber,
		Printed:    printed,
		Additional: additional,
		Order:      order,
	}, nil
}

// BillResult is a generated bill and the invoice it was recorded under.
type BillResult struct {
	Invoice *backend.Invoice `json:"invoice"`
	HTML    string           `json:"html"`
	Printed int              `json:"printed"`
}

// GenerateDineInBill prices the table's full order, records the invoice on
// the backend, closes the table order and frees the table. The rendered bill
// is returned and auto-printed when the bill config says so.
func (s *OrderService) GenerateDineInBill(ctx context.Context, cartID uuid.UUID) (*BillResult, error) {
	c, err := s.cart(cartID)
	if err != nil {
		return nil, err
	}
	if c.OrderType != enum.OrderTypeDineIn {
		return nil, ErrNotDineIn
	}
	if c.TableID == "" {
		return nil, ErrNoTable
	}
	combined := c.CombinedItems()
	if len(combined) == 0 {
		return nil, ErrEmptyCart
	}
	totals := c.Totals()

	billNumber := fmt.Sprintf("BILL-%d", s.now().UnixMilli())
	invoice, err := s.recordInvoice(ctx, billNumber, c.OrderType, c.TableName, combined, totals)
	if err != nil {
		return nil, err
	}

	html, printed := s.renderAndMaybePrintBill(ctx, billNumber, combined, totals, docgen.BillMeta{
		BillNumber: billNumber,
		OrderType:  c.OrderType,
		TableName:  c.TableName,
	}, func(cfg *backend.BillConfig) bool { return cfg.AutoPrintDineIn })

	if err := s.sessions.Complete(ctx, c.TableID); err != nil {
		return nil, fmt.Errorf("complete table order: %w", err)
	}
	s.catalog.SetTableStatus(c.TableID, enum.TableStatusAvailable)
	s.hub.Broadcast(ws.NewEvent("table.updated", map[string]string{
		"tableId": c.TableID,
		"status":  enum.TableStatusAvailable,
	}))
	s.hub.Broadcast(ws.NewEvent("order.completed", map[string]string{
		"tableId":    c.TableID,
		"billNumber": billNumber,
	}))
	s.carts.Drop(c.ID)

	return &BillResult{Invoice: invoice, HTML: html, Printed: printed}, nil
}

// PlaceTakeawayOrder bills a takeaway cart in one step: kitchen ticket,
// invoice, bill. There is no table session; the cart is dropped afterwards.
// A cart carrying a recalled held order bills under that order's invoice
// number, and the queue entry is removed once the invoice is recorded.
func (s *OrderService) PlaceTakeawayOrder(ctx context.Context, cartID uuid.UUID) (*BillResult, error) {
	c, err := s.cart(cartID)
	if err != nil {
		return nil, err
	}
	if c.OrderType != enum.OrderTypeTakeaway {
		return nil, ErrNotTakeaway
	}
	combined := c.CombinedItems()
	if len(combined) == 0 {
		return nil, ErrEmptyCart
	}
	totals := c.Totals()

	stamp := s.now().UnixMilli()
	kotNumber := fmt.Sprintf("KOT-%d", stamp)
	refs := c.HeldRefs()
	billNumber := fmt.Sprintf("BILL-%d", stamp)
	if len(refs) > 0 {
		billNumber = refs[0]
	}

	s.printKOT(ctx, kotNumber, combined, docgen.KOTMeta{
		Number:    kotNumber,
		OrderType: c.OrderType,
	})

	invoice, err := s.recordInvoice(ctx, billNumber, c.OrderType, "", combined, totals)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		s.held.Remove(ref)
	}

	html, printed := s.renderAndMaybePrintBill(ctx, billNumber, combined, totals, docgen.BillMeta{
		BillNumber: billNumber,
		OrderType:  c.OrderType,
	}, func(cfg *backend.BillConfig) bool { return cfg.AutoPrintTakeaway })

	s.hub.Broadcast(ws.NewEvent("order.completed", map[string]string{
		"billNumber": billNumber,
	}))
	s.carts.Drop(c.ID)

	return &BillResult{Invoice: invoice, HTML: html, Printed: printed}, nil
}

// HoldTakeaway parks the cart's items so the terminal can serve the next
// customer. The kitchen ticket prints now; the held customer's food is being
// prepared while they wait. The cart is emptied, not dropped. A cart that was
// recalled from the queue re-holds under its original invoice number, so the
// entry is updated in place rather than duplicated.
func (s *OrderService) HoldTakeaway(ctx context.Context, cartID uuid.UUID, customerName string) (*holdqueue.HeldOrder, error) {
	c, err := s.cart(cartID)
	if err != nil {
		return nil, err
	}
	if c.OrderType != enum.OrderTypeTakeaway {
		return nil, ErrNotTakeaway
	}
	combined := c.CombinedItems()
	if len(combined) == 0 {
		return nil, ErrEmptyCart
	}

	refs := c.HeldRefs()
	invoiceNumber := fmt.Sprintf("INV-%d", s.now().UnixMilli())
	if len(refs) > 0 {
		invoiceNumber = refs[0]
	}

	order := holdqueue.HeldOrder{
		InvoiceNumber: invoiceNumber,
		CustomerName:  customerName,
		Items:         combined,
		Totals:        c.Totals(),
		HeldAt:        s.now(),
	}
	s.held.Hold(order)
	// Any other recalled orders were folded into this entry.
	for _, ref := range refs {
		if ref != invoiceNumber {
			s.held.Remove(ref)
		}
	}

	kotNumber := fmt.Sprintf("KOT-%d", s.now().UnixMilli())
	s.printKOT(ctx, kotNumber, combined, docgen.KOTMeta{
		Number:    kotNumber,
		OrderType: c.OrderType,
	})

	c.Clear()
	return &order, nil
}

// HeldOrders lists the parked takeaway orders, oldest first.
func (s *OrderService) HeldOrders() []holdqueue.HeldOrder {
	return s.held.List()
}

// RecallHeld pulls a parked order back into the cart. Items already in the
// cart are kept; the merged order is repriced from its subtotal, never by
// summing the two orders' totals. The queue entry survives the recall and is
// settled when the cart is billed, so dropping the recalled cart loses
// nothing.
func (s *OrderService) RecallHeld(cartID uuid.UUID, invoiceNumber string) (*cart.Cart, error) {
	c, err := s.cart(cartID)
	if err != nil {
		return nil, err
	}
	if c.OrderType != enum.OrderTypeTakeaway {
		return nil, ErrNotTakeaway
	}
	order, err := s.held.Recall(invoiceNumber)
	if err != nil {
		return nil, err
	}
	merged, _ := holdqueue.Merge(order.Items, c.Lines())
	c.Restore(merged)
	c.AttachHeldRef(order.InvoiceNumber)
	return c, nil
}

// BillHeld bills a parked order directly, without recalling it into a cart.
// The bill is recorded under the order's invoice number. The queue entry is
// only removed after the invoice lands; a backend failure leaves the order in
// its place in the queue.
func (s *OrderService) BillHeld(ctx context.Context, invoiceNumber string) (*BillResult, error) {
	order, err := s.held.Recall(invoiceNumber)
	if err != nil {
		return nil, err
	}
	totals := cart.PriceLines(order.Items)

	invoice, err := s.recordInvoice(ctx, order.InvoiceNumber, enum.OrderTypeTakeaway, "", order.Items, totals)
	if err != nil {
		return nil, err
	}
	s.held.Remove(order.InvoiceNumber)

	html, printed := s.renderAndMaybePrintBill(ctx, order.InvoiceNumber, order.Items, totals, docgen.BillMeta{
		BillNumber: order.InvoiceNumber,
		OrderType:  enum.OrderTypeTakeaway,
	}, func(cfg *backend.BillConfig) bool { return cfg.AutoPrintTakeaway })

	return &BillResult{Invoice: invoice, HTML: html, Printed: printed}, nil
}

// --- Helpers ---

func logError(op string, err error) {
	log.Printf("ERROR: %s: %v", op, err)
}

func (s *OrderService) recordInvoice(ctx context.Context, billNumber, orderType, tableName string, items []cart.Line, totals cart.Totals) (*backend.Invoice, error) {
	inv := backend.Invoice{
		BillNumber: billNumber,
		OrderType:  orderType,
		TableName:  tableName,
		Items:      session.LinesToItems(items),
		Subtotal:   totals.Subtotal.InexactFloat64(),
		Tax:        totals.Tax.InexactFloat64(),
		Total:      totals.Total.InexactFloat64(),
		Timestamp:  s.now().Format(time.RFC3339),
	}
	created, err := s.client.CreateInvoice(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("record invoice: %w", err)
	}
	return created, nil
}

// printKOT renders and dispatches kitchen tickets per the KOT config: one
// document per department when printByDepartment is on, otherwise a single
// document, each repeated numberOfCopies times. Config or render failures
// skip printing rather than failing the order; the order already exists on
// the backend at this point.
func (s *OrderService) printKOT(ctx context.Context, kotNumber string, items []cart.Line, meta docgen.KOTMeta) int {
	cfg, err := s.client.GetKOTConfig(ctx)
	if err != nil {
		logError("load kot config", err)
		return 0
	}
	dcfg := docgen.Config{PaperSize: cfg.PaperSize, FormatType: cfg.FormatType}

	var jobs []printer.Job
	if cfg.PrintByDepartment {
		for _, group := range docgen.GroupByDepartment(items) {
			m := meta
			m.Department = group.Department
			html, err := s.docs.GenerateKOT(group.Items, m, dcfg)
			if err != nil {
				logError("render kot", err)
				continue
			}
			jobs = append(jobs, printer.Job{Name: kotNumber + "-" + group.Department, HTML: html})
		}
	} else {
		html, err := s.docs.GenerateKOT(items, meta, dcfg)
		if err != nil {
			logError("render kot", err)
			return 0
		}
		jobs = append(jobs, printer.Job{Name: kotNumber, HTML: html})
	}

	copies := cfg.NumberOfCopies
	if copies < 1 {
		copies = 1
	}
	if copies > 1 {
		var repeated []printer.Job
		for _, job := range jobs {
			for i := 0; i < copies; i++ {
				repeated = append(repeated, job)
			}
		}
		jobs = repeated
	}

	return s.printer.Dispatch(ctx, jobs)
}

// renderAndMaybePrintBill renders the bill and dispatches it when the config
// flag selected by autoPrint is set. Rendering failures return an empty HTML
// string; billing already succeeded and must not be rolled back over paper.
func (s *OrderService) renderAndMaybePrintBill(ctx context.Context, billNumber string, items []cart.Line, totals cart.Totals, meta docgen.BillMeta, autoPrint func(*backend.BillConfig) bool) (string, int) {
	cfg, err := s.client.GetBillConfig(ctx)
	if err != nil {
		logError("load bill config", err)
		cfg = &backend.BillConfig{}
	}

	if meta.RestaurantName == "" {
		if settings, err := s.client.GetRestaurantSettings(ctx); err == nil {
			meta.RestaurantName = settings.RestaurantName
		}
	}

	html, err := s.docs.GenerateBill(items, totals, meta, docgen.Config{PaperSize: cfg.PaperSize, FormatType: cfg.FormatType})
	if err != nil {
		logError("render bill", err)
		return "", 0
	}

	printed := 0
	if autoPrint(cfg) {
		printed = s.printer.Dispatch(ctx, []printer.Job{{Name: billNumber, HTML: html}})
	}
	return html, printed
}
