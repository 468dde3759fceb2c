package ws

import (
	"sync"

	"mealvision-server/internal/domain/eventbus"
	"mealvision-server/internal/platform/logging"
)

// Event is the frame pushed to progress subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans job lifecycle events out to the websocket connections of the job
// owner. Connections of other owners never see the event.
type Hub struct {
	logger      *logging.Logger
	bus         *eventbus.Bus
	connections sync.Map // map[string]*Connection
}

// NewHub builds the hub and subscribes it to the job topics.
func NewHub(bus *eventbus.Bus, logger *logging.Logger) (*Hub, error) {
	h := &Hub{logger: logger, bus: bus}

	if err := bus.SubscribeAsync(eventbus.EventJobProgress, h.onProgress); err != nil {
		return nil, err
	}
	if err := bus.SubscribeAsync(eventbus.EventJobCompleted, h.onCompleted); err != nil {
		return nil, err
	}
	if err := bus.SubscribeAsync(eventbus.EventJobFailed, h.onFailed); err != nil {
		return nil, err
	}
	return h, nil
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *Connection) {
	if conn == nil {
		return
	}
	h.connections.Store(conn.ID(), conn)
}

// Unregister removes and closes the connection.
func (h *Hub) Unregister(id string) {
	if value, ok := h.connections.LoadAndDelete(id); ok {
		if conn, ok := value.(*Connection); ok {
			_ = conn.Close()
		}
	}
}

// CloseAll terminates every active connection.
func (h *Hub) CloseAll() {
	h.connections.Range(func(key, value any) bool {
		if conn, ok := value.(*Connection); ok {
			_ = conn.Close()
		}
		h.connections.Delete(key)
		return true
	})
}

// Count exposes the number of active connections.
func (h *Hub) Count() int {
	count := 0
	h.connections.Range(func(any, any) bool {
		count++
		return true
	})
	return count
}

func (h *Hub) onProgress(data eventbus.ProgressEventData) {
	h.broadcast(data.OwnerID, Event{Type: eventbus.EventJobProgress, Data: data})
}

func (h *Hub) onCompleted(data eventbus.CompletedEventData) {
	h.broadcast(data.OwnerID, Event{Type: eventbus.EventJobCompleted, Data: data})
}

func (h *Hub) onFailed(data eventbus.FailedEventData) {
	h.broadcast(data.OwnerID, Event{Type: eventbus.EventJobFailed, Data: data})
}

func (h *Hub) broadcast(ownerID string, event Event) {
	h.connections.Range(func(key, value any) bool {
		conn, ok := value.(*Connection)
		if !ok || conn.OwnerID() != ownerID {
			return true
		}
		if err := conn.WriteJSON(event); err != nil {
			h.logger.DebugTag("WS", "dropping connection %s: %v", conn.ID(), err)
			h.Unregister(conn.ID())
		}
		return true
	})
}
