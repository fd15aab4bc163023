package config

import "time"

// SeedConfig holds per-seed overrides for crawl tuning. A seed with a very
// large or very noisy neighborhood can be given a tighter expansion budget
// than the global defaults without affecting other seeds.
type SeedConfig struct {
	// FanoutLimit overrides the global fan-out cap for this seed.
	// Zero means use the global value.
	FanoutLimit int `yaml:"fanoutLimit,omitempty"`

	// FollowerFloor overrides the global follower floor for this seed.
	// Negative means use the global value (0 is a valid override).
	FollowerFloor int `yaml:"followerFloor,omitempty"`

	// EdgeSetTTL overrides the edge-set TTL for this seed. A seed whose
	// network churns quickly can be refreshed more aggressively.
	EdgeSetTTL time.Duration `yaml:"edgeSetTTL,omitempty"`
}

// File represents the structure of the .nexus configuration file.
type File struct {
	// Seeds maps seed actor IDs to their overrides.
	Seeds map[string]SeedConfig `yaml:"seeds,omitempty"`

	// Defaults contains overrides applied to every seed unless the seed
	// has its own entry.
	Defaults SeedConfig `yaml:"defaults,omitempty"`
}

// GetSeedConfig returns the merged configuration for a seed actor:
// file defaults overlaid by the seed-specific entry.
func (f *File) GetSeedConfig(seedActorID string) SeedConfig {
	result := f.Defaults

	if sc, ok := f.Seeds[seedActorID]; ok {
		if sc.FanoutLimit != 0 {
			result.FanoutLimit = sc.FanoutLimit
		}
		if sc.FollowerFloor != 0 {
			result.FollowerFloor = sc.FollowerFloor
		}
		if sc.EdgeSetTTL != 0 {
			result.EdgeSetTTL = sc.EdgeSetTTL
		}
	}
	return result
}
