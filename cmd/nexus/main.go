// Package main provides the entry point for the nexus CLI.
//
// nexus ingests a social-graph neighborhood around seed actors: it expands
// each seed two hops deep through the upstream directory API, staleness-gated
// and quota-bounded, and persists actors and follow edges to a local SQLite
// graph store.
//
// Usage:
//
//	nexus crawl <actor-id>
//	nexus stats <actor-id>
//
// See --help for all available options.
package main

// main is the entry point for nexus.
func main() {
	Execute()
}
