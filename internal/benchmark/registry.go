package benchmark

import "sync"

// Registry maps run identifiers to broadcast cancellation channels. The
// external command layer fires a channel via Cancel; every worker of the run
// observes the close.
type Registry struct {
	mu       sync.Mutex
	channels map[string]chan struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]chan struct{})}
}

// Register creates a fresh cancellation channel for runID, replacing any
// existing one, and returns the receive end. Closing happens only through
// Cancel; a replaced channel is discarded unfired.
func (r *Registry) Register(runID string) <-chan struct{} {
	ch := make(chan struct{})
	r.mu.Lock()
	r.channels[runID] = ch
	r.mu.Unlock()
	return ch
}

// Cancel fires and removes the channel for runID. It returns false when no
// run with that ID is registered, so a second call on the same ID is a no-op.
func (r *Registry) Cancel(runID string) bool {
	r.mu.Lock()
	ch, ok := r.channels[runID]
	if ok {
		delete(r.channels, runID)
	}
	r.mu.Unlock()

	if ok {
		close(ch)
	}
	return ok
}

// Remove drops the channel for runID without firing it. Used on normal
// completion to free the entry.
func (r *Registry) Remove(runID string) {
	r.mu.Lock()
	delete(r.channels, runID)
	r.mu.Unlock()
}
