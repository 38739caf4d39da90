package chat

import (
	"errors"
	"sync"
)

// DefaultRegistryCapacity bounds how many clients may be connected at once.
const DefaultRegistryCapacity = 50

var (
	// ErrServerFull is returned by Add when the registry is at capacity.
	ErrServerFull = errors.New("server is full")

	// ErrUsernameTaken is returned by Add when another active client
	// already holds the username.
	ErrUsernameTaken = errors.New("username already taken")
)

// Registry is the bounded, insertion-ordered set of authenticated clients.
// All access goes through its lock; clients are never handed out for mutation.
type Registry struct {
	mu       sync.Mutex
	clients  []*Client
	capacity int
}

// NewRegistry constructs an empty registry with the given capacity.
// Non-positive capacities fall back to DefaultRegistryCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultRegistryCapacity
	}
	return &Registry{
		clients:  make([]*Client, 0, capacity),
		capacity: capacity,
	}
}

// Add registers a client. The capacity and duplicate-username checks happen in
// the same critical section as the insertion, so two concurrent
// authentications with the same name can never both succeed.
func (r *Registry) Add(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.clients) >= r.capacity {
		return ErrServerFull
	}
	for _, existing := range r.clients {
		if existing.Username == c.Username {
			return ErrUsernameTaken
		}
	}
	r.clients = append(r.clients, c)
	return nil
}

// Remove unregisters the client with the given ID and returns it, compacting
// the sequence. Removing an absent ID is a no-op returning nil.
func (r *Registry) Remove(id string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.clients {
		if c.ID == id {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			return c
		}
	}
	return nil
}

// Exists reports whether an active client holds the username.
func (r *Registry) Exists(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		if c.Username == username {
			return true
		}
	}
	return false
}

// ForEach calls visit for every registered client in insertion order. The
// visitor runs under the registry lock and must not block; deliveries from it
// have to be non-blocking channel sends, never socket I/O.
func (r *Registry) ForEach(visit func(*Client)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		visit(c)
	}
}

// Usernames returns a snapshot of the active usernames in insertion order.
func (r *Registry) Usernames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.clients))
	for i, c := range r.clients {
		names[i] = c.Username
	}
	return names
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
