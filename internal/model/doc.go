// Package model defines the core data types shared across the ingestion
// pipeline: actors, follow edges, crawl requests, and network statistics.
//
// The types in this package are deliberately free of behavior beyond small
// helpers. All mutation and persistence logic lives in the packages that own
// the data (graphstore for durable records, crawl for request lifecycles).
//
// Design decision: We keep a single model package rather than defining types
// next to their owners because:
//  1. Actor and Edge cross every package boundary in the pipeline
//  2. It avoids import cycles between the orchestrator and the store
//  3. It mirrors how the directory API shapes its responses
package model
