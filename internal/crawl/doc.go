// Package crawl implements the crawl orchestrator: the engine that expands a
// seed actor's neighborhood two hops deep and persists it to the graph store.
//
// A crawl is a strictly phased pipeline. The seed's profile and following
// list are resolved first, every first-degree actor is refreshed and
// persisted, and only then are the most-followed first-degree actors expanded
// a second hop. The phase barrier exists because fan-out candidate selection
// depends on first-degree follower counts.
//
// Expansion is bounded in three ways: a ranking policy caps the fan-out base
// to the top K first-degree actors, a follower floor drops low-signal actors
// before they cost quota, and a fixed-size worker pool bounds in-flight
// fetches independent of quota. An in-flight registry guarantees at most one
// running crawl per seed.
package crawl
