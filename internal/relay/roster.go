package relay

import "sync"

// roster is the arena of connected clients, indexed by a stable id assigned
// at accept time. Sessions store these ids rather than connection handles,
// which keeps connection lifetimes out of the session state machine. It is
// the one structure shared between the transport goroutines and the
// dispatcher, so it carries its own lock.
type roster struct {
	mu     sync.RWMutex
	nextID uint64
	client map[uint64]*Client
}

func newRoster() *roster {
	return &roster{client: make(map[uint64]*Client)}
}

// add assigns the client its id and registers it. Ids start at 1 so the zero
// value never names a client.
func (r *roster) add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.id = r.nextID
	r.client[c.id] = c
}

func (r *roster) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.client, id)
}

func (r *roster) get(id uint64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.client[id]
	return c, ok
}

// each calls fn for every connected client. fn must not call back into the
// roster.
func (r *roster) each(fn func(*Client)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.client {
		fn(c)
	}
}

func (r *roster) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.client)
}
