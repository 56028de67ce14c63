package session

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spicepos/terminal/internal/backend"
	"github.com/spicepos/terminal/internal/cart"
)

// mockOrderClient implements OrderClient with function fields.
type mockOrderClient struct {
	getTableOrderFn      func(ctx context.Context, tableID string) (*backend.TableOrder, error)
	addItemsToTableFn    func(ctx context.Context, tableID, tableName string, items []backend.OrderItem) (*backend.TableOrder, error)
	markItemsAsSentFn    func(ctx context.Context, tableID string) (*backend.TableOrder, error)
	completeTableOrderFn func(ctx context.Context, tableID string) error
}

func (m *mockOrderClient) GetTableOrder(ctx context.Context, tableID string) (*backend.TableOrder, error) {
	return m.getTableOrderFn(ctx, tableID)
}

func (m *mockOrderClient) AddItemsToTable(ctx context.Context, tableID, tableName string, items []backend.OrderItem) (*backend.TableOrder, error) {
	return m.addItemsToTableFn(ctx, tableID, tableName, items)
}

func (m *mockOrderClient) MarkItemsAsSent(ctx context.Context, tableID string) (*backend.TableOrder, error) {
	return m.markItemsAsSentFn(ctx, tableID)
}

func (m *mockOrderClient) CompleteTableOrder(ctx context.Context, tableID string) error {
	return m.completeTableOrderFn(ctx, tableID)
}

func pendingLine(id string, qty int) cart.Line {
	return cart.Line{ID: id, Name: id, Price: decimal.NewFromInt(100), Quantity: qty, Department: "Kitchen"}
}

func TestLoadCachesOrder(t *testing.T) {
	order := &backend.TableOrder{
		TableID:   "t1",
		TableName: "Table 1",
		Items:     []backend.OrderItem{{ID: "m1", Quantity: 2, SentToKitchen: true}},
	}
	client := &mockOrderClient{
		getTableOrderFn: func(ctx context.Context, tableID string) (*backend.TableOrder, error) {
			return order, nil
		},
	}
	m := NewManager(client)

	got, err := m.Load(context.Background(), "t1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TableName != "Table 1" {
		t.Errorf("order: %+v", got)
	}

	cached, ok := m.Cached("t1")
	if !ok || cached != order {
		t.Error("order not cached")
	}
}

func TestLoadNoOpenOrder(t *testing.T) {
	client := &mockOrderClient{
		getTableOrderFn: func(ctx context.Context, tableID string) (*backend.TableOrder, error) {
			return nil, nil
		},
	}
	m := NewManager(client)

	if _, err := m.Load(context.Background(), "t1"); !errors.Is(err, ErrNoOpenOrder) {
		t.Errorf("expected ErrNoOpenOrder, got %v", err)
	}
	if _, ok := m.Cached("t1"); ok {
		t.Error("free table should not be cached")
	}
}

func TestSendItemsSequence(t *testing.T) {
	var calls []string
	result := &backend.TableOrder{TableID: "t1", TableName: "Table 1"}

	client := &mockOrderClient{
		addItemsToTableFn: func(ctx context.Context, tableID, tableName string, items []backend.OrderItem) (*backend.TableOrder, error) {
			calls = append(calls, "add")
			if tableName != "Table 1" {
				t.Errorf("table name: %s", tableName)
			}
			if len(items) != 1 || items[0].ID != "m1" || items[0].Quantity != 2 {
				t.Errorf("items: %+v", items)
			}
			return result, nil
		},
		markItemsAsSentFn: func(ctx context.Context, tableID string) (*backend.TableOrder, error) {
			calls = append(calls, "sent")
			return result, nil
		},
	}
	m := NewManager(client)

	order, err := m.SendItems(context.Background(), "t1", "Table 1", []cart.Line{pendingLine("m1", 2)})
	if err != nil {
		t.Fatalf("send items: %v", err)
	}
	if order != result {
		t.Error("did not return backend's order")
	}
	if len(calls) != 2 || calls[0] != "add" || calls[1] != "sent" {
		t.Errorf("call sequence: %v", calls)
	}

	if cached, ok := m.Cached("t1"); !ok || cached != result {
		t.Error("result not cached")
	}
}

func TestSendItemsEmpty(t *testing.T) {
	m := NewManager(&mockOrderClient{})
	if _, err := m.SendItems(context.Background(), "t1", "Table 1", nil); err == nil {
		t.Fatal("expected error for empty send")
	}
}

func TestSendItemsAddFailureSkipsMarkSent(t *testing.T) {
	markCalled := false
	client := &mockOrderClient{
		addItemsToTableFn: func(ctx context.Context, tableID, tableName string, items []backend.OrderItem) (*backend.TableOrder, error) {
			return nil, errors.New("backend down")
		},
		markItemsAsSentFn: func(ctx context.Context, tableID string) (*backend.TableOrder, error) {
			markCalled = true
			return nil, nil
		},
	}
	m := NewManager(client)

	if _, err := m.SendItems(context.Background(), "t1", "Table 1", []cart.Line{pendingLine("m1", 1)}); err == nil {
		t.Fatal("expected error")
	}
	if markCalled {
		t.Error("mark-sent must not run when add fails")
	}
}

func TestCompleteDropsCache(t *testing.T) {
	client := &mockOrderClient{
		getTableOrderFn: func(ctx context.Context, tableID string) (*backend.TableOrder, error) {
			return &backend.TableOrder{TableID: "t1"}, nil
		},
		completeTableOrderFn: func(ctx context.Context, tableID string) error {
			return nil
		},
	}
	m := NewManager(client)

	if _, err := m.Load(context.Background(), "t1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.Complete(context.Background(), "t1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, ok := m.Cached("t1"); ok {
		t.Error("cache entry should be dropped after complete")
	}
}

func TestLineItemConversionsRoundTrip(t *testing.T) {
	lines := []cart.Line{
		{ID: "m1", Name: "Burger", Price: decimal.NewFromFloat(259.5), Quantity: 2, SentToKitchen: true, Department: "Kitchen", Category: "Mains"},
	}

	back := ItemsToLines(LinesToItems(lines))
	if len(back) != 1 {
		t.Fatalf("expected 1 line, got %d", len(back))
	}
	got := back[0]
	if got.ID != "m1" || got.Name != "Burger" || got.Quantity != 2 || !got.SentToKitchen || got.Department != "Kitchen" || got.Category != "Mains" {
		t.Errorf("round trip: %+v", got)
	}
	if !got.Price.Equal(decimal.NewFromFloat(259.5)) {
		t.Errorf("price: %s", got.Price)
	}
}
