package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spicepos/terminal/internal/holdqueue"
	"github.com/spicepos/terminal/internal/service"
)

// HeldOrdersService defines the service methods needed by held order
// handlers. Satisfied by *service.OrderService.
type HeldOrdersService interface {
	HeldOrders() []holdqueue.HeldOrder
	BillHeld(ctx context.Context, invoiceNumber string) (*service.BillResult, error)
}

// HeldOrderHandler handles the takeaway hold queue endpoints.
type HeldOrderHandler struct {
	orders HeldOrdersService
}

// NewHeldOrderHandler creates a new HeldOrderHandler.
func NewHeldOrderHandler(orders HeldOrdersService) *HeldOrderHandler {
	return &HeldOrderHandler{orders: orders}
}

// RegisterRoutes registers held order endpoints on the given Chi router.
func (h *HeldOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/held-orders", h.List)
	r.Post("/held-orders/{invoiceNumber}/bill", h.Bill)
}

// --- Response types ---

type heldOrderResponse struct {
	InvoiceNumber string             `json:"invoiceNumber"`
	CustomerName  string             `json:"customerName,omitempty"`
	Items         []cartLineResponse `json:"items"`
	Subtotal      float64            `json:"subtotal"`
	Tax           float64            `json:"tax"`
	Total         float64            `json:"total"`
	HeldAt        time.Time          `json:"heldAt"`
}

func toHeldOrderResponse(o holdqueue.HeldOrder) heldOrderResponse {
	return heldOrderResponse{
		InvoiceNumber: o.InvoiceNumber,
		CustomerName:  o.CustomerName,
		Items:         toLineResponses(o.Items),
		Subtotal:      o.Totals.Subtotal.InexactFloat64(),
		Tax:           o.Totals.Tax.InexactFloat64(),
		Total:         o.Totals.Total.InexactFloat64(),
		HeldAt:        o.HeldAt,
	}
}

// --- Handlers ---

// List returns the held takeaway orders, oldest first.
func (h *HeldOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	held := h.orders.HeldOrders()
	resp := make([]heldOrderResponse, len(held))
	for i, o := range held {
		resp[i] = toHeldOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Bill settles a held order directly from the queue.
func (h *HeldOrderHandler) Bill(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.BillHeld(r.Context(), chi.URLParam(r, "invoiceNumber"))
	if err != nil {
		respondOrderError(w, "bill held order", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
