package model

import "time"

// Edge is a directed "follows" relationship between two actors.
// The pair (SourceID, TargetID) is unique; both endpoints exist as Actor
// records, at least as stub placeholders, whenever an edge is persisted.
//
// Edges are write-once: a fresher re-fetch of the source's following list is
// diffed against the stored set and only previously unseen pairs are
// inserted. Existing rows keep their original DiscoveredAt.
type Edge struct {
	// SourceID is the follower's ActorID.
	SourceID string `json:"source_id"`

	// TargetID is the followed actor's ActorID.
	TargetID string `json:"target_id"`

	// DiscoveredAt is when this pair was first returned by the directory.
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Key returns the deduplication key for the edge pair.
// ActorIDs are opaque upstream identifiers that never contain '\x00', so the
// concatenation is unambiguous.
func (e Edge) Key() string {
	return e.SourceID + "\x00" + e.TargetID
}
