package model

import (
	"time"

	"github.com/google/uuid"
)

// CrawlRequest is one invocation of the ingestion pipeline for a seed actor.
// Requests live only for the duration of a run; they are never persisted.
// The orchestrator owns their lifecycle exclusively and guarantees at most
// one in-flight request per seed actor at any time.
type CrawlRequest struct {
	// ID identifies this request in logs. It has no upstream meaning.
	ID uuid.UUID

	// SeedActorID is the actor whose neighborhood is being ingested.
	SeedActorID string

	// Credential is the bearer credential used for directory API calls.
	// It must never be logged; the log package redacts it defensively.
	Credential string

	// RequestedAt is when the request was accepted.
	RequestedAt time.Time
}

// NewCrawlRequest creates a request for the given seed with a fresh ID.
func NewCrawlRequest(seedActorID, credential string) CrawlRequest {
	return CrawlRequest{
		ID:          uuid.New(),
		SeedActorID: seedActorID,
		Credential:  credential,
		RequestedAt: time.Now(),
	}
}

// CrawlState is the state machine position of a CrawlRequest.
// Transitions are strictly forward: Queued -> FetchingSeed ->
// ExpandingFirstDegree -> ExpandingSecondDegree -> Persisting -> Done,
// with Failed reachable from any state on an unrecoverable error.
type CrawlState int

const (
	// StateQueued is the initial state before any fetch is issued.
	StateQueued CrawlState = iota

	// StateFetchingSeed covers resolution of the seed actor's profile.
	StateFetchingSeed

	// StateExpandingFirstDegree covers the seed's following list and the
	// profile refresh of every first-degree actor.
	StateExpandingFirstDegree

	// StateExpandingSecondDegree covers following-list fetches for the
	// ranked fan-out candidates and discovery of second-degree actors.
	StateExpandingSecondDegree

	// StatePersisting covers the final bulk upsert of second-degree data.
	StatePersisting

	// StateDone means the request completed. Partial-success runs still
	// finish Done; the store's freshness timestamps are the status channel.
	StateDone

	// StateFailed means a fatal error aborted the request. Records already
	// persisted remain valid.
	StateFailed
)

// String returns a human-readable state name for logging.
func (s CrawlState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateFetchingSeed:
		return "fetching-seed"
	case StateExpandingFirstDegree:
		return "expanding-first-degree"
	case StateExpandingSecondDegree:
		return "expanding-second-degree"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is an end state.
func (s CrawlState) Terminal() bool {
	return s == StateDone || s == StateFailed
}
