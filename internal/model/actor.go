package model

import "time"

// Actor represents one entity in the external directory (a user account).
// Actors are created on first sight during a crawl and updated in place on
// every successful re-fetch. They are never hard-deleted: when the upstream
// reports removal we mark the record unreachable instead, so the graph keeps
// its shape and future crawls know not to re-query.
type Actor struct {
	// ActorID is the stable external identifier assigned by the directory.
	// It is globally unique and never changes, unlike Handle.
	ActorID string `json:"actor_id"`

	// Handle is the actor's current public username. Handles can be renamed
	// upstream, so they must never be used as a primary key.
	Handle string `json:"handle"`

	// DisplayName is the free-form profile name.
	DisplayName string `json:"display_name,omitempty"`

	// Bio is the profile description text.
	Bio string `json:"bio,omitempty"`

	// Location is the self-reported profile location.
	Location string `json:"location,omitempty"`

	// Verified reports whether the directory marks this account as verified.
	Verified bool `json:"verified,omitempty"`

	// FollowerCount and FollowingCount are the public counters reported by
	// the directory at fetch time. FollowerCount doubles as the default
	// relevance signal for bounded second-degree expansion.
	FollowerCount  int `json:"follower_count"`
	FollowingCount int `json:"following_count"`

	// IsRestricted reports whether the account is protected. Restricted
	// actors cannot be expanded further; the orchestrator records them so
	// later crawls skip the actor without spending a quota token.
	IsRestricted bool `json:"is_restricted,omitempty"`

	// Unreachable is set when the upstream reports the account as removed.
	// The record is retained (edges may still point at it) but excluded
	// from all future fetch scheduling.
	Unreachable bool `json:"unreachable,omitempty"`

	// LastRefreshedAt is the time of the last successful profile fetch.
	// It is monotonic non-decreasing per actor and is the staleness signal
	// persisted for reuse across runs. The zero value means the record is a
	// stub that has never been fetched directly.
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// IsStub reports whether this actor was only ever seen as an edge endpoint
// and has never had its profile fetched. Stubs are always stale.
func (a Actor) IsStub() bool {
	return a.LastRefreshedAt.IsZero()
}

// Expandable reports whether the actor can be used as a fan-out root for
// second-degree expansion. Restricted and unreachable accounts consume quota
// without adding graph value, so they are filtered before ranking.
func (a Actor) Expandable(followerFloor int) bool {
	return !a.IsRestricted && !a.Unreachable && a.FollowerCount >= followerFloor
}
