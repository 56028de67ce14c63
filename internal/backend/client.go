package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// email/password pair with a 4xx status.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Client consumes the backend REST API that owns all business data. Every
// mutation returns the backend's authoritative state, which callers must
// apply over their local caches.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL (including the /api prefix).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// --- Tables ---

func (c *Client) ListTables(ctx context.Context) ([]Table, error) {
	var tables []Table
	if err := c.do(ctx, http.MethodGet, "/tables", nil, &tables); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// --- Table orders ---

// GetTableOrder returns nil (no error) when the table has no open order.
func (c *Client) GetTableOrder(ctx context.Context, tableID string) (*TableOrder, error) {
	var order *TableOrder
	if err := c.do(ctx, http.MethodGet, "/orders/table/"+tableID, nil, &order); err != nil {
		return nil, fmt.Errorf("get table order: %w", err)
	}
	if order == nil || order.TableID == "" {
		return nil, nil
	}
	return order, nil
}

type addItemsRequest struct {
	TableName string      `json:"table_name"`
	Items     []OrderItem `json:"items"`
}

func (c *Client) AddItemsToTable(ctx context.Context, tableID, tableName string, items []OrderItem) (*TableOrder, error) {
	var order TableOrder
	body := addItemsRequest{TableName: tableName, Items: items}
	if err := c.do(ctx, http.MethodPost, "/orders/table/"+tableID, body, &order); err != nil {
		return nil, fmt.Errorf("add items to table: %w", err)
	}
	return &order, nil
}

func (c *Client) MarkItemsAsSent(ctx context.Context, tableID string) (*TableOrder, error) {
	var order TableOrder
	if err := c.do(ctx, http.MethodPost, "/orders/table/"+tableID+"/sent", nil, &order); err != nil {
		return nil, fmt.Errorf("mark items as sent: %w", err)
	}
	return &order, nil
}

func (c *Client) CompleteTableOrder(ctx context.Context, tableID string) error {
	if err := c.do(ctx, http.MethodPost, "/orders/table/"+tableID+"/complete", nil, nil); err != nil {
		return fmt.Errorf("complete table order: %w", err)
	}
	return nil
}

// --- Invoices ---

func (c *Client) ListInvoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	if err := c.do(ctx, http.MethodGet, "/invoices", nil, &invoices); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (c *Client) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	var created Invoice
	if err := c.do(ctx, http.MethodPost, "/invoices", inv, &created); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return &created, nil
}

// --- Print configs ---

func (c *Client) GetKOTConfig(ctx context.Context) (*KOTConfig, error) {
	var cfg KOTConfig
	if err := c.do(ctx, http.MethodGet, "/config/kot", nil, &cfg); err != nil {
		return nil, fmt.Errorf("get kot config: %w", err)
	}
	return &cfg, nil
}

func (c *Client) UpdateKOTConfig(ctx context.Context, cfg KOTConfig) (*KOTConfig, error) {
	var updated KOTConfig
	if err := c.do(ctx, http.MethodPut, "/config/kot", cfg, &updated); err != nil {
		return nil, fmt.Errorf("update kot config: %w", err)
	}
	return &updated, nil
}

func (c *Client) GetBillConfig(ctx context.Context) (*BillConfig, error) {
	var cfg BillConfig
	if err := c.do(ctx, http.MethodGet, "/config/bill", nil, &cfg); err != nil {
		return nil, fmt.Errorf("get bill config: %w", err)
	}
	return &cfg, nil
}

func (c *Client) UpdateBillConfig(ctx context.Context, cfg BillConfig) (*BillConfig, error) {
	var updated BillConfig
	if err := c.do(ctx, http.MethodPut, "/config/bill", cfg, &updated); err != nil {
		return nil, fmt.Errorf("update bill config: %w", err)
	}
	return &updated, nil
}

// --- Menu / categories / departments ---

func (c *Client) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	var items []MenuItem
	if err := c.do(ctx, http.MethodGet, "/menu-items", nil, &items); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (c *Client) ListDepartments(ctx context.Context) ([]Department, error) {
	var departments []Department
	if err := c.do(ctx, http.MethodGet, "/departments", nil, &departments); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// --- Restaurant settings ---

func (c *Client) GetRestaurantSettings(ctx context.Context) (*RestaurantSettings, error) {
	var settings RestaurantSettings
	if err := c.do(ctx, http.MethodGet, "/restaurant-settings", nil, &settings); err != nil {
		return nil, fmt.Errorf("get restaurant settings: %w", err)
	}
	return &settings, nil
}

func (c *Client) UpdateRestaurantSettings(ctx context.Context, settings RestaurantSettings) (*RestaurantSettings, error) {
	var updated RestaurantSettings
	if err := c.do(ctx, http.MethodPut, "/restaurant-settings", settings, &updated); err != nil {
		return nil, fmt.Errorf("update restaurant settings: %w", err)
	}
	return &updated, nil
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login forwards credentials to the backend. Any 2xx response means success.
func (c *Client) Login(ctx context.Context, email, password string) error {
	err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// --- Transport ---

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
