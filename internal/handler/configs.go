package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spicepos/terminal/internal/backend"
)

// ConfigStore defines the backend calls needed by config handlers.
// Satisfied by *backend.Client; narrow interface for testability.
type ConfigStore interface {
	GetKOTConfig(ctx context.Context) (*backend.KOTConfig, error)
	UpdateKOTConfig(ctx context.Context, cfg backend.KOTConfig) (*backend.KOTConfig, error)
	GetBillConfig(ctx context.Context) (*backend.BillConfig, error)
	UpdateBillConfig(ctx context.Context, cfg backend.BillConfig) (*backend.BillConfig, error)
	GetRestaurantSettings(ctx context.Context) (*backend.RestaurantSettings, error)
	UpdateRestaurantSettings(ctx context.Context, settings backend.RestaurantSettings) (*backend.RestaurantSettings, error)
	ListInvoices(ctx context.Context) ([]backend.Invoice, error)
}

// ConfigHandler proxies print configs, restaurant settings and the invoice
// history. The backend owns all of it; the terminal adds no state here.
type ConfigHandler struct {
	store ConfigStore
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(store ConfigStore) *ConfigHandler {
	return &ConfigHandler{store: store}
}

// RegisterRoutes registers config endpoints on the given Chi router.
func (h *ConfigHandler) RegisterRoutes(r chi.Router) {
	r.Get("/config/kot", h.GetKOT)
	r.Put("/config/kot", h.UpdateKOT)
	r.Get("/config/bill", h.GetBill)
	r.Put("/config/bill", h.UpdateBill)
	r.Get("/restaurant-settings", h.GetSettings)
	r.Put("/restaurant-settings", h.UpdateSettings)
	r.Get("/invoices", h.ListInvoices)
}

// --- Handlers ---

func (h *ConfigHandler) GetKOT(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetKOTConfig(r.Context())
	if err != nil {
		respondBackendError(w, "get kot config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *ConfigHandler) UpdateKOT(w http.ResponseWriter, r *http.Request) {
	var cfg backend.KOTConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	updated, err := h.store.UpdateKOTConfig(r.Context(), cfg)
	if err != nil {
		respondBackendError(w, "update kot config", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ConfigHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetBillConfig(r.Context())
	if err != nil {
		respondBackendError(w, "get bill config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *ConfigHandler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	var cfg backend.BillConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	updated, err := h.store.UpdateBillConfig(r.Context(), cfg)
	if err != nil {
		respondBackendError(w, "update bill config", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ConfigHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetRestaurantSettings(r.Context())
	if err != nil {
		respondBackendError(w, "get restaurant settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *ConfigHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings backend.RestaurantSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	updated, err := h.store.UpdateRestaurantSettings(r.Context(), settings)
	if err != nil {
		respondBackendError(w, "update restaurant settings", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ListInvoices returns the billing history from the backend.
func (h *ConfigHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		respondBackendError(w, "list invoices", err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func respondBackendError(w http.ResponseWriter, op string, err error) {
	log.Printf("ERROR: %s: %v", op, err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
}
