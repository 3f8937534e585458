package notify

import (
	"fmt"
	"sync"
	"time"
)

// DedupRegistry suppresses repeat notifications. Each key records the instant
// it was marked; retirement is an explicit timestamp comparison rather than
// matching date substrings embedded in the key.
type DedupRegistry struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDedupRegistry creates an empty registry.
func NewDedupRegistry() *DedupRegistry {
	return &DedupRegistry{seen: make(map[string]time.Time)}
}

// Key derives the dedup key for a (source, identity, scheduled instant)
// triple.
func Key(source, identity string, at time.Time) string {
	return fmt.Sprintf("%s|%s|%s", source, identity, at.UTC().Format(time.RFC3339))
}

// Seen reports whether the key is currently marked.
func (r *DedupRegistry) Seen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[key]
	return ok
}

// Mark records the key at the given instant.
func (r *DedupRegistry) Mark(key string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[key] = at
}

// Prune removes keys marked before cutoff and returns how many were removed.
func (r *DedupRegistry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, at := range r.seen {
		if at.Before(cutoff) {
			delete(r.seen, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of marked keys.
func (r *DedupRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
