package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spicepos/terminal/internal/cart"
	"github.com/spicepos/terminal/internal/catalog"
	"github.com/spicepos/terminal/internal/enum"
	"github.com/spicepos/terminal/internal/holdqueue"
	"github.com/spicepos/terminal/internal/service"
)

// Orders defines the service methods needed by cart handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type Orders interface {
	OpenCart(ctx context.Context, orderType, tableID string) (*cart.Cart, error)
	Cart(id uuid.UUID) (*cart.Cart, error)
	DropCart(id uuid.UUID)
	AddItem(id uuid.UUID, menuItemID string) (*cart.Cart, error)
	UpdateQuantity(id uuid.UUID, itemID string, delta int, sent bool) (*cart.Cart, error)
	RemoveLine(id uuid.UUID, itemID string, sent bool) (*cart.Cart, error)
	PlaceDineInOrder(ctx context.Context, id uuid.UUID) (*service.PlaceResult, error)
	PlaceTakeawayOrder(ctx context.Context, id uuid.UUID) (*service.BillResult, error)
	GenerateDineInBill(ctx context.Context, id uuid.UUID) (*service.BillResult, error)
	HoldTakeaway(ctx context.Context, id uuid.UUID, customerName string) (*holdqueue.HeldOrder, error)
	RecallHeld(id uuid.UUID, invoiceNumber string) (*cart.Cart, error)
}

// CartHandler handles cart composition and order placement endpoints.
type CartHandler struct {
	orders Orders
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(orders Orders) *CartHandler {
	return &CartHandler{orders: orders}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Post("/carts", h.Open)
	r.Get("/carts/{id}", h.Get)
	r.Delete("/carts/{id}", h.Drop)
	r.Post("/carts/{id}/items", h.AddItem)
	r.Put("/carts/{id}/items/{itemId}", h.UpdateQuantity)
	r.Delete("/carts/{id}/items/{itemId}", h.RemoveLine)
	r.Post("/carts/{id}/place", h.Place)
	r.Post("/carts/{id}/bill", h.Bill)
	r.Post("/carts/{id}/hold", h.Hold)
	r.Post("/carts/{id}/recall", h.Recall)
}

// --- Request / Response types ---

type openCartRequest struct {
	OrderType string `json:"orderType"`
	TableID   string `json:"tableId"`
}

type addItemRequest struct {
	MenuItemID string `json:"menuItemId"`
}

type updateQuantityRequest struct {
	Delta         int  `json:"delta"`
	SentToKitchen bool `json:"sentToKitchen"`
}

type holdRequest struct {
	CustomerName string `json:"customerName"`
}

type recallRequest struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

type cartLineResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	SentToKitchen bool    `json:"sentToKitchen"`
	Department    string  `json:"department"`
	Category      string  `json:"category,omitempty"`
}

type cartResponse struct {
	ID            string             `json:"id"`
	OrderType     string             `json:"orderType"`
	TableID       string             `json:"tableId,omitempty"`
	TableName     string             `json:"tableName,omitempty"`
	Items         []cartLineResponse `json:"items"`
	CombinedItems []cartLineResponse `json:"combinedItems"`
	Subtotal      float64            `json:"subtotal"`
	Tax           float64            `json:"tax"`
	Total         float64            `json:"total"`
}

func toLineResponses(lines []cart.Line) []cartLineResponse {
	resp := make([]cartLineResponse, len(lines))
	for i, l := range lines {
		resp[i] = cartLineResponse{
			ID:            l.ID,
			Name:          l.Name,
			Price:         l.Price.InexactFloat64(),
			Quantity:      l.Quantity,
			SentToKitchen: l.SentToKitchen,
			Department:    l.Department,
			Category:      l.Category,
		}
	}
	return resp
}

func toCartResponse(c *cart.Cart) cartResponse {
	totals := c.Totals()
	return cartResponse{
		ID:            c.ID.String(),
		OrderType:     c.OrderType,
		TableID:       c.TableID,
		TableName:     c.TableName,
		Items:         toLineResponses(c.Lines()),
		CombinedItems: toLineResponses(c.CombinedItems()),
		Subtotal:      totals.Subtotal.InexactFloat64(),
		Tax:           totals.Tax.InexactFloat64(),
		Total:         totals.Total.InexactFloat64(),
	}
}

// --- Handlers ---

// Open starts a new cart. Dine-in carts require a tableId and load the
// table's open order.
func (h *CartHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.orders.OpenCart(r.Context(), req.OrderType, req.TableID)
	if err != nil {
		respondOrderError(w, "open cart", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(c))
}

// Get returns the cart's current state including the combined pricing view.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	c, err := h.orders.Cart(id)
	if err != nil {
		respondOrderError(w, "get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// Drop abandons the cart.
func (h *CartHandler) Drop(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	h.orders.DropCart(id)
	w.WriteHeader(http.StatusNoContent)
}

// AddItem adds one unit of a menu item to the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MenuItemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menuItemId is required"})
		return
	}

	c, err := h.orders.AddItem(id, req.MenuItemID)
	if err != nil {
		respondOrderError(w, "add item", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// UpdateQuantity adjusts a pending line's quantity by delta. A quantity that
// drops to zero removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.orders.UpdateQuantity(id, chi.URLParam(r, "itemId"), req.Delta, req.SentToKitchen)
	if err != nil {
		respondOrderError(w, "update quantity", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveLine deletes a pending line. The sent query flag selects which half
// of a split line the caller means; sent lines are refused.
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	sent := r.URL.Query().Get("sent") == "true"

	c, err := h.orders.RemoveLine(id, chi.URLParam(r, "itemId"), sent)
	if err != nil {
		respondOrderError(w, "remove line", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// Place sends the order to the kitchen. Dine-in carts send their pending
// round; takeaway carts are billed in the same step.
func (h *CartHandler) Place(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	c, err := h.orders.Cart(id)
	if err != nil {
		respondOrderError(w, "place order", err)
		return
	}

	if c.OrderType == enum.OrderTypeTakeaway {
		result, err := h.orders.PlaceTakeawayOrder(r.Context(), id)
		if err != nil {
			respondOrderError(w, "place takeaway order", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := h.orders.PlaceDineInOrder(r.Context(), id)
	if err != nil {
		respondOrderError(w, "place dine-in order", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Bill settles a dine-in table: invoice, bill document, table freed.
func (h *CartHandler) Bill(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	result, err := h.orders.GenerateDineInBill(r.Context(), id)
	if err != nil {
		respondOrderError(w, "generate bill", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Hold parks a takeaway cart under an invoice number and prints its kitchen
// ticket.
func (h *CartHandler) Hold(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	var req holdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.orders.HoldTakeaway(r.Context(), id, req.CustomerName)
	if err != nil {
		respondOrderError(w, "hold order", err)
		return
	}
	writeJSON(w, http.StatusOK, toHeldOrderResponse(*order))
}

// Recall merges a held order back into the cart.
func (h *CartHandler) Recall(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	var req recallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.InvoiceNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invoiceNumber is required"})
		return
	}

	c, err := h.orders.RecallHeld(id, req.InvoiceNumber)
	if err != nil {
		respondOrderError(w, "recall order", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// --- Helpers ---

func cartID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart ID"})
		return uuid.UUID{}, false
	}
	return id, true
}

func respondOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrCartNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
	case errors.Is(err, holdqueue.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "held order not found"})
	case errors.Is(err, cart.ErrLineNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "line not found"})
	case errors.Is(err, cart.ErrLineSent):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "line already sent to kitchen"})
	case errors.Is(err, catalog.ErrUnknownMenuItem):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown menu item"})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrNoTable),
		errors.Is(err, service.ErrUnknownTable),
		errors.Is(err, service.ErrInvalidOrderType),
		errors.Is(err, service.ErrNotTakeaway),
		errors.Is(err, service.ErrNotDineIn):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
	}
}
