package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spicepos/terminal/internal/auth"
	"github.com/spicepos/terminal/internal/backend"
)

// LoginClient defines the backend call needed by auth handlers.
// Satisfied by *backend.Client; narrow interface for testability.
type LoginClient interface {
	Login(ctx context.Context, email, password string) error
}

// AuthHandler handles terminal login. Credentials are verified by the
// backend; on success the terminal issues its own session token.
type AuthHandler struct {
	client    LoginClient
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client LoginClient, jwtSecret string) *AuthHandler {
	return &AuthHandler{client: client, jwtSecret: jwtSecret}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
}

// --- Handlers ---

// Login forwards email + password to the backend and mints a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	if err := h.client.Login(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, backend.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		log.Printf("ERROR: login: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, req.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, Email: req.Email})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}
