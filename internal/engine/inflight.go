package engine

import (
	"sync"

	"tether/pkg/chat"
)

// inflightRegistry tracks message keys with a running pipeline so a
// redelivered envelope cannot start a second one for the same message.
type inflightRegistry struct {
	mu   sync.Mutex
	keys map[chat.Key]struct{}
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{keys: make(map[chat.Key]struct{})}
}

// begin claims a key and reports whether the claim is new.
func (r *inflightRegistry) begin(key chat.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[key]; ok {
		return false
	}
	r.keys[key] = struct{}{}
	return true
}

// done releases a key.
func (r *inflightRegistry) done(key chat.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
}

// size returns the number of running pipelines.
func (r *inflightRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
