package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mealvision-server/internal/domain/eventbus"
	platformtesting "mealvision-server/internal/platform/testing"
)

// dialPair upgrades one client connection against a throwaway server and
// registers the server side in the hub under ownerID.
func dialPair(t *testing.T, hub *Hub, ownerID string) *websocket.Conn {
	t.Helper()

	registered := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Register(NewConnection(ownerID+"-conn", ownerID, socket))
		close(registered)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("server connection never registered")
	}
	return client
}

func TestHub_BroadcastsToOwnerOnly(t *testing.T) {
	bus := eventbus.New()
	hub, err := NewHub(bus, platformtesting.SetupTestLogger(t))
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	t.Cleanup(hub.CloseAll)

	ownerConn := dialPair(t, hub, "user-1")
	otherConn := dialPair(t, hub, "user-2")

	bus.Publish(eventbus.EventJobProgress, eventbus.ProgressEventData{
		JobID:    "job1",
		OwnerID:  "user-1",
		Progress: 42,
	})
	bus.WaitAsync()

	_ = ownerConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Type string                      `json:"type"`
		Data eventbus.ProgressEventData `json:"data"`
	}
	if err := ownerConn.ReadJSON(&event); err != nil {
		t.Fatalf("owner never received the event: %v", err)
	}
	if event.Type != eventbus.EventJobProgress || event.Data.Progress != 42 {
		t.Errorf("unexpected event %+v", event)
	}

	_ = otherConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if err := otherConn.ReadJSON(&event); err == nil {
		t.Error("event leaked to another owner's connection")
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	bus := eventbus.New()
	hub, err := NewHub(bus, platformtesting.SetupTestLogger(t))
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	t.Cleanup(hub.CloseAll)

	client := dialPair(t, hub, "user-1")
	if hub.Count() != 1 {
		t.Fatalf("expected 1 connection, got %d", hub.Count())
	}

	hub.Unregister("user-1-conn")
	if hub.Count() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.Count())
	}

	bus.Publish(eventbus.EventJobCompleted, eventbus.CompletedEventData{JobID: "job1", OwnerID: "user-1"})
	bus.WaitAsync()

	_ = client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var event Event
	if err := client.ReadJSON(&event); err == nil {
		t.Error("unregistered connection still received events")
	}
}
