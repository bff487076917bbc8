package orders

import (
	"encoding/json"
	"testing"
	"time"

	"solemart/models"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send: make(chan []byte, 10),
	}

	hub.register <- client

	hub.Broadcast("order-created", models.Order{OrderID: "ORDtest123", TotalPrice: 1000})

	select {
	case got := <-client.Send:
		var ev feedEvent
		if err := json.Unmarshal(got, &ev); err != nil {
			t.Fatalf("unmarshal broadcast: %v", err)
		}
		if ev.Action != "order-created" {
			t.Fatalf("action = %q, want order-created", ev.Action)
		}
		if ev.Order.OrderID != "ORDtest123" {
			t.Fatalf("orderId = %q, want ORDtest123", ev.Order.OrderID)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for broadcast")
	}

	hub.unregister <- client
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// Buffer of one: the second broadcast finds the channel full and the
	// hub must drop the client instead of blocking.
	client := &Client{Send: make(chan []byte, 1)}
	hub.register <- client

	hub.Broadcast("order-paid", models.Order{OrderID: "ORD1"})
	hub.Broadcast("order-paid", models.Order{OrderID: "ORD2"})

	// Give the hub a moment to process both sends.
	time.Sleep(50 * time.Millisecond)

	hub.mu.Lock()
	_, stillThere := hub.clients[client]
	hub.mu.Unlock()
	if stillThere {
		t.Fatal("slow client should have been dropped")
	}
}

func TestNotifyWithoutFeedIsNoop(t *testing.T) {
	feedMu.Lock()
	old := feedHub
	feedHub = nil
	feedMu.Unlock()
	defer func() {
		feedMu.Lock()
		feedHub = old
		feedMu.Unlock()
	}()

	// Must not panic or block.
	NotifyOrderCreated(models.Order{OrderID: "ORDx"})
	NotifyOrderPaid(models.Order{OrderID: "ORDx"})
}
