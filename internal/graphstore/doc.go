// Package graphstore provides storage for the crawled social graph.
//
// The pipeline only ever proposes upserts; the store owns the Actor and Edge
// records. The Store interface is what the orchestrator programs against,
// and the SQLite implementation is the default backing.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of a
// server database because:
//  1. No external dependencies - the graph is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. Bulk upserts in one transaction are plenty fast at this scale
//  4. WAL mode provides good concurrent read performance
//
// All upserts are idempotent: retries or overlapping crawls of overlapping
// neighborhoods can propose the same Actor or Edge twice, and applying the
// same input twice must produce no duplicates and no error.
package graphstore
