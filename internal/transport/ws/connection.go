package ws

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Connection wraps a gorilla websocket connection with serialized writes and
// idempotent close.
type Connection struct {
	id         string
	ownerID    string
	socket     *websocket.Conn
	mu         sync.Mutex
	closed     atomic.Bool
	lastActive atomic.Int64
}

// NewConnection creates a tracked websocket connection bound to one owner.
func NewConnection(id, ownerID string, socket *websocket.Conn) *Connection {
	conn := &Connection{
		id:      id,
		ownerID: ownerID,
		socket:  socket,
	}
	conn.touch()
	return conn
}

// WriteJSON sends a JSON payload to the client.
func (c *Connection) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("connection %s already closed", c.id)
	}
	if err := c.socket.WriteJSON(v); err != nil {
		return err
	}
	c.touch()
	return nil
}

// ReadMessage receives one message, used to detect client close.
func (c *Connection) ReadMessage() (int, []byte, error) {
	messageType, payload, err := c.socket.ReadMessage()
	if err == nil {
		c.touch()
	}
	return messageType, payload, err
}

// Close terminates the underlying websocket connection.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.socket.Close()
}

// ID returns the session identifier.
func (c *Connection) ID() string {
	return c.id
}

// OwnerID returns the authenticated owner this connection streams for.
func (c *Connection) OwnerID() string {
	return c.ownerID
}

// IsClosed reports whether the connection has already been closed.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

func (c *Connection) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}
