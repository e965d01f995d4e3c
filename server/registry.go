package server

import (
	"sync"
)

// SessionRegistry tracks the currently connected clients by session ID.
// Dispatch does not depend on it; it exists for diagnostics and
// disconnect logging.
type SessionRegistry struct {
	mu    sync.RWMutex
	store map[string]Client
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{store: make(map[string]Client)}
}

func (r *SessionRegistry) Store(client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[client.Session().ID] = client
}

func (r *SessionRegistry) Get(id string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	val, ok := r.store[id]
	return val, ok
}

func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, id)
}

func (r *SessionRegistry) List() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]Client, 0, len(r.store))
	for _, client := range r.store {
		clients = append(clients, client)
	}

	return clients
}
