package model

// NetworkStats summarizes what the pipeline has ingested for a seed actor.
// It is computed from the store on demand; nothing here is persisted.
type NetworkStats struct {
	// SeedActorID is the actor the statistics are centered on.
	SeedActorID string `json:"seed_actor_id"`

	// FirstDegreeCount is the number of outgoing edges from the seed.
	FirstDegreeCount int `json:"first_degree_count"`

	// ActorsIndexed is the total number of actor records in the store.
	ActorsIndexed int `json:"actors_indexed"`

	// EdgesIndexed is the total number of follow edges in the store.
	EdgesIndexed int `json:"edges_indexed"`
}
