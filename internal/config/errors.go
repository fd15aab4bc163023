package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). Callers can use errors.Is() for
// programmatic handling while the messages stay human-readable.
var (
	// ErrNoCredential is returned when no bearer credential is configured.
	// Provide one via the --credential flag or the NEXUS_BEARER_TOKEN
	// environment variable.
	ErrNoCredential = errors.New("no credential: set --credential or NEXUS_BEARER_TOKEN")

	// ErrInvalidQuota is returned when the quota capacity or window is not
	// positive. A zero quota would block every directory call forever.
	ErrInvalidQuota = errors.New("invalid quota: capacity and window must be positive")

	// ErrInvalidFanoutLimit is returned when the fan-out cap is not
	// positive. A cap of zero would make second-degree expansion a no-op.
	ErrInvalidFanoutLimit = errors.New("invalid fanout limit: must be positive")

	// ErrInvalidFollowerFloor is returned when the follower floor is
	// negative. Use 0 to disable the floor.
	ErrInvalidFollowerFloor = errors.New("invalid follower floor: must be non-negative")

	// ErrInvalidWorkers is returned when the worker pool size is not
	// positive. Zero workers would stall every crawl phase.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidTimeout is returned when the per-call timeout is not
	// positive.
	ErrInvalidTimeout = errors.New("invalid call timeout: must be positive")

	// ErrInvalidPageSize is returned when the page size is outside the
	// range the upstream accepts (1-1000).
	ErrInvalidPageSize = errors.New("invalid page size: must be between 1 and 1000")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
