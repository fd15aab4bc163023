package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sahil485/neXus/internal/staleness"
)

// validConfig returns a config that passes validation.
func validConfig() *Config {
	cfg := NewConfig()
	cfg.Credential = "test-credential"
	return cfg
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config passes",
			mutate:  func(_ *Config) {},
			wantErr: nil,
		},
		{
			name:    "missing credential",
			mutate:  func(c *Config) { c.Credential = "" },
			wantErr: ErrNoCredential,
		},
		{
			name:    "zero quota capacity",
			mutate:  func(c *Config) { c.QuotaCapacity = 0 },
			wantErr: ErrInvalidQuota,
		},
		{
			name:    "zero quota window",
			mutate:  func(c *Config) { c.QuotaWindow = 0 },
			wantErr: ErrInvalidQuota,
		},
		{
			name:    "zero fanout limit",
			mutate:  func(c *Config) { c.FanoutLimit = 0 },
			wantErr: ErrInvalidFanoutLimit,
		},
		{
			name:    "negative follower floor",
			mutate:  func(c *Config) { c.FollowerFloor = -1 },
			wantErr: ErrInvalidFollowerFloor,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Workers = 0 },
			wantErr: ErrInvalidWorkers,
		},
		{
			name:    "zero call timeout",
			mutate:  func(c *Config) { c.CallTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "page size above upstream maximum",
			mutate:  func(c *Config) { c.PageSize = 1001 },
			wantErr: ErrInvalidPageSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfigStalenessPolicy tests TTL override wiring.
func TestConfigStalenessPolicy(t *testing.T) {
	t.Parallel()

	t.Run("defaults when unset", func(t *testing.T) {
		t.Parallel()

		p := NewConfig().StalenessPolicy()
		if p.ProfileTTL != staleness.DefaultProfileTTL {
			t.Errorf("ProfileTTL = %v, want default", p.ProfileTTL)
		}
		if p.EdgeSetTTL != staleness.DefaultEdgeSetTTL {
			t.Errorf("EdgeSetTTL = %v, want default", p.EdgeSetTTL)
		}
	})

	t.Run("overrides when set", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ProfileTTL = time.Hour
		cfg.EdgeSetTTL = 2 * time.Hour

		p := cfg.StalenessPolicy()
		if p.ProfileTTL != time.Hour {
			t.Errorf("ProfileTTL = %v, want 1h override", p.ProfileTTL)
		}
		if p.EdgeSetTTL != 2*time.Hour {
			t.Errorf("EdgeSetTTL = %v, want 2h override", p.EdgeSetTTL)
		}
		if p.DerivedTTL != staleness.DefaultDerivedTTL {
			t.Errorf("DerivedTTL = %v, want default", p.DerivedTTL)
		}
	})
}

// TestLoadConfigFile tests YAML loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads seed overrides", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, ".nexus")
		content := `
defaults:
  fanoutLimit: 50
seeds:
  "123456":
    fanoutLimit: 20
    followerFloor: 100
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		sc := f.GetSeedConfig("123456")
		if sc.FanoutLimit != 20 {
			t.Errorf("FanoutLimit = %d, want seed override 20", sc.FanoutLimit)
		}
		if sc.FollowerFloor != 100 {
			t.Errorf("FollowerFloor = %d, want 100", sc.FollowerFloor)
		}

		other := f.GetSeedConfig("999")
		if other.FanoutLimit != 50 {
			t.Errorf("FanoutLimit = %d, want defaults 50", other.FanoutLimit)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfigFile() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".nexus")
		if err := os.WriteFile(path, []byte("seeds: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

// TestFindConfigFile tests config file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path that exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})
}
