package staleness

import "time"

// Default TTLs per data class. Values match the upstream refresh cadence the
// pipeline was tuned against: profile counters drift within a day, follow
// lists churn far more slowly.
const (
	// DefaultProfileTTL is how long a fetched profile stays usable.
	DefaultProfileTTL = 24 * time.Hour

	// DefaultEdgeSetTTL is how long a fetched following list stays usable.
	DefaultEdgeSetTTL = 7 * 24 * time.Hour

	// DefaultDerivedTTL is how long derived content (recent activity)
	// stays usable.
	DefaultDerivedTTL = 24 * time.Hour
)

// DataClass identifies which kind of record a freshness decision is about.
type DataClass int

const (
	// ClassProfile covers actor profile records.
	ClassProfile DataClass = iota

	// ClassEdgeSet covers an actor's outgoing follow edges as a unit.
	ClassEdgeSet

	// ClassDerivedContent covers content derived from an actor's recent
	// activity.
	ClassDerivedContent
)

// String returns the data class name for logging.
func (c DataClass) String() string {
	switch c {
	case ClassProfile:
		return "profile"
	case ClassEdgeSet:
		return "edge-set"
	case ClassDerivedContent:
		return "derived-content"
	default:
		return "unknown"
	}
}

// Policy maps data classes to TTLs. The zero value is not usable; construct
// with NewPolicy or populate every field.
type Policy struct {
	// ProfileTTL is the maximum usable age of profile data.
	ProfileTTL time.Duration

	// EdgeSetTTL is the maximum usable age of a following list.
	EdgeSetTTL time.Duration

	// DerivedTTL is the maximum usable age of derived content.
	DerivedTTL time.Duration
}

// NewPolicy returns a Policy with the default TTL table.
func NewPolicy() Policy {
	return Policy{
		ProfileTTL: DefaultProfileTTL,
		EdgeSetTTL: DefaultEdgeSetTTL,
		DerivedTTL: DefaultDerivedTTL,
	}
}

// TTL returns the configured TTL for the given data class.
func (p Policy) TTL(class DataClass) time.Duration {
	switch class {
	case ClassProfile:
		return p.ProfileTTL
	case ClassEdgeSet:
		return p.EdgeSetTTL
	case ClassDerivedContent:
		return p.DerivedTTL
	default:
		return 0
	}
}

// IsFresh reports whether a record refreshed at lastRefreshedAt is still
// usable at time now. The boundary is inclusive: a record exactly TTL old is
// still fresh. A zero lastRefreshedAt means the record was never fetched and
// is always stale.
func (p Policy) IsFresh(lastRefreshedAt time.Time, class DataClass, now time.Time) bool {
	if lastRefreshedAt.IsZero() {
		return false
	}
	return now.Sub(lastRefreshedAt) <= p.TTL(class)
}

// Age returns how old a record is at time now. A zero lastRefreshedAt
// reports the maximum representable age.
func Age(lastRefreshedAt, now time.Time) time.Duration {
	if lastRefreshedAt.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(lastRefreshedAt)
}
