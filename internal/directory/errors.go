package directory

import "errors"

// Directory client errors.
//
// Design decision: We define specific sentinel errors rather than wrapping
// everything generically, so the orchestrator can distinguish fatal failures
// (abort the crawl) from exhausted transients (skip the actor) with errors.Is.
var (
	// ErrUnauthorized is returned when the upstream rejects the bearer
	// credential. This is fatal for the whole crawl: every subsequent call
	// with the same credential would fail identically.
	ErrUnauthorized = errors.New("directory: credential rejected by upstream")

	// ErrTransientExhausted is returned after all retry attempts for a
	// transient failure (timeout, 5xx) were used up. The underlying cause
	// is wrapped alongside it.
	ErrTransientExhausted = errors.New("directory: transient failure persisted across retries")

	// ErrQuotaRetryFailed is returned when a call hit the upstream quota
	// limit, waited out the stated reset window, and got a second quota
	// error on the retry.
	ErrQuotaRetryFailed = errors.New("directory: still rate limited after reset window")
)

// Outcome is the closed classification of a directory lookup.
type Outcome int

const (
	// OutcomeFound means the lookup succeeded and records were returned.
	OutcomeFound Outcome = iota

	// OutcomeNotFound means the actor does not exist upstream. The
	// orchestrator marks the record unreachable so future crawls skip it
	// without re-querying.
	OutcomeNotFound

	// OutcomeRestricted means the actor is protected and its data cannot
	// be listed. Recorded so future crawls skip the actor.
	OutcomeRestricted
)

// String returns a human-readable outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}
