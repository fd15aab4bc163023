package staleness

import (
	"testing"
	"time"
)

// TestPolicyIsFresh tests freshness decisions across data classes.
func TestPolicyIsFresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := NewPolicy()

	tests := []struct {
		name            string
		lastRefreshedAt time.Time
		class           DataClass
		want            bool
	}{
		{
			name:            "profile just refreshed is fresh",
			lastRefreshedAt: now,
			class:           ClassProfile,
			want:            true,
		},
		{
			name:            "profile exactly at TTL boundary is fresh",
			lastRefreshedAt: now.Add(-DefaultProfileTTL),
			class:           ClassProfile,
			want:            true,
		},
		{
			name:            "profile one second past TTL is stale",
			lastRefreshedAt: now.Add(-DefaultProfileTTL - time.Second),
			class:           ClassProfile,
			want:            false,
		},
		{
			name:            "edge-set within seven days is fresh",
			lastRefreshedAt: now.Add(-6 * 24 * time.Hour),
			class:           ClassEdgeSet,
			want:            true,
		},
		{
			name:            "edge-set exactly at TTL boundary is fresh",
			lastRefreshedAt: now.Add(-DefaultEdgeSetTTL),
			class:           ClassEdgeSet,
			want:            true,
		},
		{
			name:            "edge-set past seven days is stale",
			lastRefreshedAt: now.Add(-DefaultEdgeSetTTL - time.Minute),
			class:           ClassEdgeSet,
			want:            false,
		},
		{
			name:            "derived content stale after a day",
			lastRefreshedAt: now.Add(-25 * time.Hour),
			class:           ClassDerivedContent,
			want:            false,
		},
		{
			name:            "zero timestamp is always stale",
			lastRefreshedAt: time.Time{},
			class:           ClassProfile,
			want:            false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := policy.IsFresh(tt.lastRefreshedAt, tt.class, now)
			if got != tt.want {
				t.Errorf("IsFresh(%v, %v) = %v, want %v",
					tt.lastRefreshedAt, tt.class, got, tt.want)
			}
		})
	}
}

// TestPolicyIsFreshCustomTTL tests that custom TTL tables are honored.
func TestPolicyIsFreshCustomTTL(t *testing.T) {
	t.Parallel()

	now := time.Now()
	policy := Policy{
		ProfileTTL: time.Hour,
		EdgeSetTTL: 2 * time.Hour,
		DerivedTTL: 30 * time.Minute,
	}

	if !policy.IsFresh(now.Add(-time.Hour), ClassProfile, now) {
		t.Error("profile at custom TTL boundary should be fresh")
	}
	if policy.IsFresh(now.Add(-time.Hour-time.Nanosecond), ClassProfile, now) {
		t.Error("profile past custom TTL should be stale")
	}
	if policy.IsFresh(now.Add(-time.Hour), ClassDerivedContent, now) {
		t.Error("derived content past 30m custom TTL should be stale")
	}
}

// TestPolicyTTL tests TTL lookup per data class.
func TestPolicyTTL(t *testing.T) {
	t.Parallel()

	policy := NewPolicy()

	tests := []struct {
		class DataClass
		want  time.Duration
	}{
		{ClassProfile, DefaultProfileTTL},
		{ClassEdgeSet, DefaultEdgeSetTTL},
		{ClassDerivedContent, DefaultDerivedTTL},
		{DataClass(99), 0},
	}

	for _, tt := range tests {
		if got := policy.TTL(tt.class); got != tt.want {
			t.Errorf("TTL(%v) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

// TestDataClassString tests data class names.
func TestDataClassString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class DataClass
		want  string
	}{
		{ClassProfile, "profile"},
		{ClassEdgeSet, "edge-set"},
		{ClassDerivedContent, "derived-content"},
		{DataClass(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// TestAge tests the age helper.
func TestAge(t *testing.T) {
	t.Parallel()

	now := time.Now()

	if got := Age(now.Add(-time.Hour), now); got != time.Hour {
		t.Errorf("Age() = %v, want %v", got, time.Hour)
	}
	if got := Age(time.Time{}, now); got != time.Duration(1<<63-1) {
		t.Errorf("Age(zero) = %v, want maximum duration", got)
	}
}
