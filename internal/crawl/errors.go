package crawl

import "errors"

// Orchestrator errors.
var (
	// ErrAlreadyInFlight is returned when a crawl for the same seed actor
	// is still running. Duplicate triggers are an idempotent no-op for the
	// fire-and-forget interface; the synchronous path surfaces this error.
	ErrAlreadyInFlight = errors.New("crawl: request already in flight for seed")

	// ErrSeedRestricted means the seed actor itself is protected. Nothing
	// can be expanded from a restricted seed, so the request fails
	// immediately and is never retried.
	ErrSeedRestricted = errors.New("crawl: seed actor is restricted")

	// ErrSeedNotFound means the upstream directory does not know the seed.
	ErrSeedNotFound = errors.New("crawl: seed actor not found upstream")
)
