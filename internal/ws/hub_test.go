package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if !hub.clients[client] {
		t.Fatal("client not registered")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.clients[client] {
		t.Fatal("client still registered after unregister")
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub)
	client2 := mockClient(hub)
	client3 := mockClient(hub)

	// Register all clients
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testPayload := json.RawMessage(`{"tableId":"t1","status":"occupied"}`)
	event := Event{
		Type:    "table.updated",
		Payload: testPayload,
	}
	hub.Broadcast(event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "table.updated" {
				t.Errorf("client%d: expected type 'table.updated', got '%s'", i+1, received.Type)
			}
			if string(received.Payload) != string(testPayload) {
				t.Errorf("client%d: expected payload '%s', got '%s'", i+1, testPayload, received.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestBroadcastAfterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub)
	client2 := mockClient(hub)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	// Unregister client1
	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	event := Event{
		Type:    "order.placed",
		Payload: json.RawMessage(`{"tableId":"t2"}`),
	}
	hub.Broadcast(event)

	// client2 should receive the message
	select {
	case msg := <-client2.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("unmarshal error: %v", err)
		}
		if received.Type != "order.placed" {
			t.Errorf("wrong event type: %s", received.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client2 did not receive message")
	}

	// client1's send channel is closed; it must not receive the event
	select {
	case msg, ok := <-client1.send:
		if ok && len(msg) > 0 {
			t.Fatal("unregistered client should not receive message")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent("table.updated", map[string]string{"tableId": "t1", "status": "available"})

	if event.Type != "table.updated" {
		t.Errorf("expected type 'table.updated', got '%s'", event.Type)
	}

	var payload map[string]string
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("payload unmarshal error: %v", err)
	}
	if payload["tableId"] != "t1" || payload["status"] != "available" {
		t.Errorf("unexpected payload: %s", event.Payload)
	}
}

func TestEventSerialization(t *testing.T) {
	testCases := []struct {
		name  string
		event Event
	}{
		{
			name: "table updated event",
			event: Event{
				Type:    "table.updated",
				Payload: json.RawMessage(`{"tableId":"t1","status":"occupied"}`),
			},
		},
		{
			name: "order placed event",
			event: Event{
				Type:    "order.placed",
				Payload: json.RawMessage(`{"tableId":"t2","items":3}`),
			},
		},
		{
			name: "order completed event",
			event: Event{
				Type:    "order.completed",
				Payload: json.RawMessage(`{"tableId":"t3","billNumber":"BILL-7"}`),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.event)
			if err != nil {
				t.Fatalf("Marshal error: %v", err)
			}

			var decoded Event
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}

			if decoded.Type != tc.event.Type {
				t.Errorf("Type mismatch: got %s, want %s", decoded.Type, tc.event.Type)
			}
			if string(decoded.Payload) != string(tc.event.Payload) {
				t.Errorf("Payload mismatch: got %s, want %s", decoded.Payload, tc.event.Payload)
			}
		})
	}
}
