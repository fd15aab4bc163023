// Package staleness decides whether cached directory data is still usable or
// must be re-fetched. It is pure decision logic: no I/O, no clocks, no side
// effects. Callers pass the current time explicitly, which keeps every
// decision trivially unit-testable.
//
// Each data class carries its own TTL because the classes change at very
// different rates: profiles and derived content drift daily, while follow
// edge-sets are comparatively stable and are expensive to re-fetch (one quota
// token per pagination page).
//
// A freshness hit is the cheapest operation in the pipeline: it saves a quota
// token, an HTTP round trip, and a store write.
package staleness
