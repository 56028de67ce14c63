package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spicepos/terminal/internal/cart"
	"github.com/spicepos/terminal/internal/enum"
	"github.com/spicepos/terminal/internal/handler"
	"github.com/spicepos/terminal/internal/holdqueue"
	"github.com/spicepos/terminal/internal/service"
)

// mockOrders implements handler.Orders with function fields.
type mockOrders struct {
	openCartFn           func(ctx context.Context, orderType, tableID string) (*cart.Cart, error)
	cartFn               func(id uuid.UUID) (*cart.Cart, error)
	dropCartFn           func(id uuid.UUID)
	addItemFn            func(id uuid.UUID, menuItemID string) (*cart.Cart, error)
	updateQuantityFn     func(id uuid.UUID, itemID string, delta int, sent bool) (*cart.Cart, error)
	removeLineFn         func(id uuid.UUID, itemID string, sent bool) (*cart.Cart, error)
	placeDineInOrderFn   func(ctx context.Context, id uuid.UUID) (*service.PlaceResult, error)
	placeTakeawayOrderFn func(ctx context.Context, id uuid.UUID) (*service.BillResult, error)
	generateDineInBillFn func(ctx context.Context, id uuid.UUID) (*service.BillResult, error)
	holdTakeawayFn       func(ctx context.Context, id uuid.UUID, customerName string) (*holdqueue.HeldOrder, error)
	recallHeldFn         func(id uuid.UUID, invoiceNumber string) (*cart.Cart, error)
}

func (m *mockOrders) OpenCart(ctx context.Context, orderType, tableID string) (*cart.Cart, error) {
	return m.openCartFn(ctx, orderType, tableID)
}
func (m *mockOrders) Cart(id uuid.UUID) (*cart.Cart, error) { return m.cartFn(id) }
func (m *mockOrders) DropCart(id uuid.UUID)                 { m.dropCartFn(id) }
func (m *mockOrders) AddItem(id uuid.UUID, menuItemID string) (*cart.Cart, error) {
	return m.addItemFn(id, menuItemID)
}
func (m *mockOrders) UpdateQuantity(id uuid.UUID, itemID string, delta int, sent bool) (*cart.Cart, error) {
	return m.updateQuantityFn(id, itemID, delta, sent)
}
func (m *mockOrders) RemoveLine(id uuid.UUID, itemID string, sent bool) (*cart.Cart, error) {
	return m.removeLineFn(id, itemID, sent)
}
func (m *mockOrders) PlaceDineInOrder(ctx context.Context, id uuid.UUID) (*service.PlaceResult, error) {
	return m.placeDineInOrderFn(ctx, id)
}
func (m *mockOrders) PlaceTakeawayOrder(ctx context.Context, id uuid.UUID) (*service.BillResult, error) {
	return m.placeTakeawayOrderFn(ctx, id)
}
func (m *mockOrders) GenerateDineInBill(ctx context.Context, id uuid.UUID) (*service.BillResult, error) {
	return m.generateDineInBillFn(ctx, id)
}
func (m *mockOrders) HoldTakeaway(ctx context.Context, id uuid.UUID, customerName string) (*holdqueue.HeldOrder, error) {
	return m.holdTakeawayFn(ctx, id, customerName)
}
func (m *mockOrders) RecallHeld(id uuid.UUID, invoiceNumber string) (*cart.Cart, error) {
	return m.recallHeldFn(id, invoiceNumber)
}

func cartRouter(orders handler.Orders) chi.Router {
	r := chi.NewRouter()
	handler.NewCartHandler(orders).RegisterRoutes(r)
	return r
}

func sampleCart(orderType string) *cart.Cart {
	return cart.New(orderType)
}

func TestOpenCart(t *testing.T) {
	c := sampleCart(enum.OrderTypeDineIn)
	orders := &mockOrders{
		openCartFn: func(ctx context.Context, orderType, tableID string) (*cart.Cart, error) {
			if orderType != enum.OrderTypeDineIn || tableID != "t1" {
				t.Errorf("args: %s %s", orderType, tableID)
			}
			return c, nil
		},
	}

	req := httptest.NewRequest("POST", "/carts", strings.NewReader(`{"orderType":"dine-in","tableId":"t1"}`))
	rr := httptest.NewRecorder()
	cartRouter(orders).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp struct {
		ID        string `json:"id"`
		OrderType string `json:"orderType"`
	}
	decodeJSON(t, rr, &resp)
	if resp.ID != c.ID.String() || resp.OrderType != enum.OrderTypeDineIn {
		t.Errorf("response: %+v", resp)
	}
}

func TestOpenCartUnknownTable(t *testing.T) {
	orders := &mockOrders{
		openCartFn: func(ctx context.Context, orderType, tableID string) (*cart.Cart, error) {
			return nil, service.ErrUnknownTable
		},
	}

	req := httptest.NewRequest("POST", "/carts", strings.NewReader(`{"orderType":"dine-in","tableId":"bogus"}`))
	rr := httptest.NewRecorder()
	cartRouter(orders).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetCartNotFound(t *testing.T) {
	orders := &mockOrders{
		cartFn: func(id uuid.UUID) (*cart.Cart, error) {
			return nil, service.ErrCartNotFound
		},
	}

	req := httptest.NewRequest("GET", "/carts/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	cartRouter(orders).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetCartInvalidID(t *testing.T) {
	req := httptest.NewRequest("GET", "/carts/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	cartRouter(&mockOrders{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAddItem(t *testing.T) {
	c := sampleCart(enum.OrderTypeTakeaway)
	orders := &mockOrders{
		addItemFn: func(id uuid.UUID, menuItemID string) (*cart.Cart, error) {
			if menuItemID != "m1" {
				t.Errorf("menu item: %s", menuItemID)
			}
			return c, nil
		},
	}

	req := httptest.NewRequest("POST", "/carts/"+c.ID.String()+"/items", strings.NewReader(`{"menuItemId":"m1"}`))
	rr := httptest.NewRecorder()
	cartRouter(orders).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestUpdateQuantitySentLineConflicts(t *testing.T) {
	c := sampleCart(enum.OrderTypeDineIn)
	orders := &mockOrders{
		updateQuantityFn: func(id uuid.UUID, itemID string, delta int, sent bool) (*cart.Cart, error) {
			return nil, cart.ErrLineSent
		},
	}

	req := httptest.NewRequest("PUT", "/carts/"+c.ID.String()+"/items/m1", strings.NewReader(`{"delta":1,"sentToKitchen":true}`))
	rr := httptest.NewRecorder()
	cartRouter(orders).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestRemoveLinePassesSentFlag(t *testing.T) {
	c := sampleCart(enum.OrderTypeDineIn)
	orders := &mockOrders{
		removeLineFn: func(id uuid.UUID, itemID string, sent bool) (*cart.Cart, error) {
			if itemID != "m1" || !sent {
				t.Errorf("args: %s sent=%v", itemID, sent)
			}
			return nil, cart.ErrLineSent
		},
	}

	req := httptest.NewRequest("DELETE", "/carts/"+c.ID.String()+"/items/m1?sent=true", nil)
	rr := httptest.NewRecorder()
	cartRouter(orders).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestPlaceRoutesByOrderType(t *testing.T) {
	dineIn := sampleCart(enum.OrderTypeDineIn)
	takeaway := sampleCart(enum.OrderTypeTakeaway)

	var placedDineIn, placedTakeaway bool
	orders := &mockOrders{
		cartFn: func(id uuid.UUID) (*cart.Cart, error) {
			if id == dineIn.ID {
				return dineIn, nil
			}
			return takeaway, nil
		},
		placeDineInOrderFn: func(ctx context.Context, id uuid.UUID) (*service.PlaceResult, error) {
			placedDineIn = true
			return &service.PlaceResult{KOTNumber: "KOT-1", Printed: 1}, nil
		},
		placeTakeawayOrderFn: func(ctx context.Context, id uuid.UUID) (*service.BillResult, error) {
			placedTakeaway = true
			return &service.BillResult{HTML: "<html></html>"}, nil
		},
	}
	r := cartRouter(orders)

	req := httptest.NewRequest("POST", "/carts/"+dineIn.ID.String()+"/place", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !placedDineIn {
		t.Errorf("dine-in place: status %d, called %v", rr.Code, placedDineIn)
	}

	req = httptest.NewRequest("POST", "/carts/"+takeaway.ID.String()+"/place", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !placedTakeaway {
		t.Errorf("takeaway place: status %d, called %v", rr.Code, placedTakeaway)
	}
}

func TestHold(t *testing.T) {
	c := sampleCart(enum.OrderTypeTakeaway)
	orders := &mockOrders{
		holdTakeawayFn: func(ctx context.Context, id uuid.UUID, customerName string) (*holdqueue.HeldOrder, error) {
			if customerName != "Asha" {
				t.Errorf("customer: %s", customerName)
			}
			return &holdqueue.HeldOrder{InvoiceNumber: "INV-1", CustomerName: customerName}, nil
		},
	}

	req := httptest.NewRequest("POST", "/carts/"+c.ID.String()+"/hold", strings.NewReader(`{"customerName":"Asha"}`))
	rr := httptest.NewRecorder()
	cartRouter(orders).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp struct {
		InvoiceNumber string `json:"invoiceNumber"`
	}
	decodeJSON(t, rr, &resp)
	if resp.InvoiceNumber != "INV-1" {
		t.Errorf("invoice: %s", resp.InvoiceNumber)
	}
}

func TestRecallNotFound(t *testing.T) {
	c := sampleCart(enum.OrderTypeTakeaway)
	orders := &mockOrders{
		recallHeldFn: func(id uuid.UUID, invoiceNumber string) (*cart.Cart, error) {
			return nil, holdqueue.ErrNotFound
		},
	}

	req := httptest.NewRequest("POST", "/carts/"+c.ID.String()+"/recall", strings.NewReader(`{"invoiceNumber":"INV-404"}`))
	rr := httptest.NewRecorder()
	cartRouter(orders).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
