package game

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
	pingInterval   = 54 * time.Second
)

// Client wraps one live WebSocket connection tracked by the Hub. The conn is
// nil in tests; delivery then only exercises the buffered send channel.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	addr string

	mu       sync.Mutex
	identity Identity
	bound    bool

	// closed is guarded by the owning hub's mutex, not by mu, so that a
	// broadcast can check membership and channel liveness under one lock.
	closed bool
}

// NewClient builds a registry client around an upgraded connection.
func NewClient(conn *websocket.Conn) *Client {
	addr := "test"
	if conn != nil {
		addr = conn.RemoteAddr().String()
	}
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		addr: addr,
	}
}

// Identity returns the last bound identity and whether one was bound at all.
// Unbound connections are "anonymous" and excluded from rosters and unicast.
func (c *Client) Identity() (Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity, c.bound
}

func (c *Client) setIdentity(id Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound && c.identity == id {
		return false
	}
	c.identity = id
	c.bound = true
	return true
}

// WritePump drains the send channel onto the wire and keeps the connection
// alive with pings. Run it in its own goroutine; it exits when the send
// channel is closed (hub removal) or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("[WS] write to %s failed: %v", c.addr, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
