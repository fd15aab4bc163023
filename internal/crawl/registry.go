package crawl

import "sync"

// Registry tracks which seed actors currently have a crawl in flight.
//
// Design decision: We keep the in-flight set in process memory rather than in
// the database because a crawl request only lives for the duration of a run.
// Persisting it would require crash-recovery sweeps for rows that leak when
// the process dies mid-crawl; an in-memory set resets to empty for free.
type Registry struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		inFlight: make(map[string]struct{}),
	}
}

// Begin reserves the seed for a new crawl. It returns false if a crawl for
// the same seed is already in flight. When two callers race on the same
// seed, exactly one observes true.
func (r *Registry) Begin(seedActorID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inFlight[seedActorID]; ok {
		return false
	}
	r.inFlight[seedActorID] = struct{}{}
	return true
}

// End releases the seed's reservation. Calling End for a seed that is not
// reserved is a no-op.
func (r *Registry) End(seedActorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.inFlight, seedActorID)
}

// InFlight reports whether a crawl for the seed is currently running.
func (r *Registry) InFlight(seedActorID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.inFlight[seedActorID]
	return ok
}

// Len returns the number of crawls currently in flight.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.inFlight)
}
