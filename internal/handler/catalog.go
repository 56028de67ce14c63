package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spicepos/terminal/internal/catalog"
)

// CatalogHandler serves the cached menu, categories, departments and tables.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.Tables)
	r.Get("/menu-items", h.MenuItems)
	r.Get("/categories", h.Categories)
	r.Get("/departments", h.Departments)
	r.Post("/catalog/refresh", h.Refresh)
}

// --- Handlers ---

// Tables returns the table registry with live status flags.
func (h *CatalogHandler) Tables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Tables())
}

// MenuItems returns the cached menu.
func (h *CatalogHandler) MenuItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.MenuItems())
}

// Categories returns the cached categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

// Departments returns the cached departments.
func (h *CatalogHandler) Departments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Departments())
}

// Refresh re-pulls every catalog cache from the backend.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		log.Printf("ERROR: refresh catalog: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
