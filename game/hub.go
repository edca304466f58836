package game

import (
	"log"
	"sort"
	"sync"
)

// Hub is the connection registry shared by chat and game traffic. It maps
// live connections to their display identity and provides best-effort
// fan-out: any connection whose buffered send fails is removed synchronously
// inside the same broadcast call. It is safe for concurrent use by every
// session loop, inbound handler, and teardown path.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register admits a connection with an anonymous identity. No broadcast is
// triggered until the client binds.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	c.closed = false
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[HUB] client %s registered (%d online)", c.addr, total)
}

// Bind attaches a display identity to a registered connection and announces
// the updated roster. Rebinding the same identity is a no-op.
func (h *Hub) Bind(c *Client, id Identity) {
	if !c.setIdentity(id) {
		return
	}
	h.broadcastRoster()
}

// Unregister drops a connection. If it had a bound identity the remaining
// clients get a presence update.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		c.closed = true
	}
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	close(c.send)
	log.Printf("[HUB] client %s unregistered (%d online)", c.addr, total)
	if _, bound := c.Identity(); bound {
		h.broadcastRoster()
	}
}

// BroadcastAll delivers the payload to every connection, bound or not.
func (h *Hub) BroadcastAll(payload []byte) {
	h.deliver(h.snapshot(), payload)
}

// BroadcastSubset delivers the payload to every bound connection whose
// identity satisfies the predicate.
func (h *Hub) BroadcastSubset(match func(Identity) bool, payload []byte) {
	var targets []*Client
	for _, c := range h.snapshot() {
		if id, bound := c.Identity(); bound && match(id) {
			targets = append(targets, c)
		}
	}
	h.deliver(targets, payload)
}

// Unicast delivers the payload to every connection bound to the given user.
func (h *Hub) Unicast(userID int64, payload []byte) {
	h.BroadcastSubset(func(id Identity) bool { return id.UserID == userID }, payload)
}

// Send queues a payload for a single known client, reaping it on failure.
func (h *Hub) Send(c *Client, payload []byte) {
	if !h.trySend(c, payload) {
		h.reap([]*Client{c})
	}
}

// Roster lists the currently bound identities, ordered by user id.
func (h *Hub) Roster() []Identity {
	ids := make([]Identity, 0)
	for _, c := range h.snapshot() {
		if id, bound := c.Identity(); bound {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].UserID < ids[j].UserID })
	return ids
}

// Active reports whether the client is still tracked and deliverable.
func (h *Hub) Active(c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[c]
	return ok && !c.closed
}

// Online reports the number of tracked connections.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// trySend queues the payload without blocking. A full buffer or a removed
// client counts as a delivery failure.
func (h *Hub) trySend(c *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok || c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) deliver(targets []*Client, payload []byte) {
	var failed []*Client
	for _, c := range targets {
		if !h.trySend(c, payload) {
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		h.reap(failed)
	}
}

// reap removes dead connections found during a broadcast. It deliberately
// skips the roster rebroadcast to keep a failing roster send from recursing.
func (h *Hub) reap(dead []*Client) {
	h.mu.Lock()
	var toClose []chan []byte
	for _, c := range dead {
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			c.closed = true
			toClose = append(toClose, c.send)
			log.Printf("[HUB] client %s reaped after failed send", c.addr)
		}
	}
	h.mu.Unlock()
	for _, ch := range toClose {
		close(ch)
	}
}

func (h *Hub) broadcastRoster() {
	h.BroadcastAll(rosterPayload(h.Roster()))
}
