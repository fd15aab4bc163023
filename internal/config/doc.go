// Package config defines the configuration for the ingestion pipeline.
//
// Configuration flows in one direction: CLI flags and an optional YAML file
// populate a flat Config struct which is passed through the application via
// dependency injection. There is no global configuration state.
//
// The YAML file (.nexus) carries per-seed overrides for crawl tuning (fan-out
// cap, follower floor, TTLs), mirroring how different seeds warrant different
// expansion budgets. The bearer credential is never stored in the file; it is
// read from the environment or a flag.
package config
