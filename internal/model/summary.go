package model

import "time"

// CrawlSummary captures what one crawl run did. It is produced by the
// orchestrator when a request reaches a terminal state and consumed by the
// report writers. The summary is informational only; the graph store's
// freshness timestamps remain the authoritative status channel.
type CrawlSummary struct {
	// RequestID is the CrawlRequest identifier, for log correlation.
	RequestID string `json:"request_id"`

	// SeedActorID is the seed whose neighborhood was crawled.
	SeedActorID string `json:"seed_actor_id"`

	// State is the terminal state the request reached (done or failed).
	State CrawlState `json:"-"`

	// StateName mirrors State for serialized output.
	StateName string `json:"state"`

	// FirstDegreeCount is the number of first-degree actors discovered.
	FirstDegreeCount int `json:"first_degree_count"`

	// SecondDegreeCount is the number of newly discovered second-degree
	// actors, excluding the seed and first-degree set.
	SecondDegreeCount int `json:"second_degree_count"`

	// ActorsUpserted is the total number of actor records written.
	ActorsUpserted int `json:"actors_upserted"`

	// EdgesUpserted is the total number of edge records proposed. Existing
	// identical edges are counted here even though the store keeps the
	// original row.
	EdgesUpserted int `json:"edges_upserted"`

	// FetchesPerformed is the number of directory API calls issued.
	FetchesPerformed int `json:"fetches_performed"`

	// SkippedFresh is the number of fetches avoided because the stored
	// record was still within its TTL.
	SkippedFresh int `json:"skipped_fresh"`

	// SkippedRestricted is the number of actors skipped or newly marked
	// because the upstream reported them as protected.
	SkippedRestricted int `json:"skipped_restricted"`

	// NotFound is the number of actors the upstream no longer knows.
	NotFound int `json:"not_found"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock time the run took.
	Duration time.Duration `json:"duration_ns"`

	// ErrorMessage holds the fatal error text when State is failed.
	ErrorMessage string `json:"error,omitempty"`
}

// Succeeded reports whether the run completed without a fatal error.
func (s CrawlSummary) Succeeded() bool {
	return s.State == StateDone
}
