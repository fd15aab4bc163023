package main

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sahil485/neXus/internal/config"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [actor-id...]" {
			t.Errorf("expected use 'crawl [actor-id...]', got %q", cmd.Use)
		}
	})

	t.Run("has expansion flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"fanout", "floor", "workers", "ceiling", "page-size"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})

	t.Run("has quota flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"quota-capacity", "quota-window"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})

	t.Run("has report flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"json", "markdown", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})
}

// TestBuildCrawlConfig tests config construction from flags.
func TestBuildCrawlConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv(config.CredentialEnv, "env-token")

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}

		cfg, batch, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Credential != "env-token" {
			t.Errorf("Credential = %q, want env fallback", cfg.Credential)
		}
		if cfg.FanoutLimit != config.DefaultFanoutLimit {
			t.Errorf("FanoutLimit = %d, want %d", cfg.FanoutLimit, config.DefaultFanoutLimit)
		}
		if cfg.QuotaCapacity != config.DefaultQuotaCapacity {
			t.Errorf("QuotaCapacity = %d, want %d", cfg.QuotaCapacity, config.DefaultQuotaCapacity)
		}
		if batch != 1 {
			t.Errorf("batch = %d, want 1", batch)
		}
	})

	t.Run("flag credential wins over environment", func(t *testing.T) {
		t.Setenv(config.CredentialEnv, "env-token")

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"--credential", "flag-token"}); err != nil {
			t.Fatal(err)
		}

		cfg, _, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Credential != "flag-token" {
			t.Errorf("Credential = %q, want flag-token", cfg.Credential)
		}
	})

	t.Run("parses expansion overrides", func(t *testing.T) {
		cmd := NewCrawlCmd()
		args := []string{
			"--fanout", "25",
			"--floor", "10",
			"--workers", "4",
			"--edge-ttl", "24h",
			"--batch", "3",
		}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}

		cfg, batch, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.FanoutLimit != 25 || cfg.FollowerFloor != 10 || cfg.Workers != 4 {
			t.Errorf("expansion overrides not applied: %+v", cfg)
		}
		if cfg.EdgeSetTTL != 24*time.Hour {
			t.Errorf("EdgeSetTTL = %v, want 24h", cfg.EdgeSetTTL)
		}
		if batch != 3 {
			t.Errorf("batch = %d, want 3", batch)
		}

		policy := cfg.StalenessPolicy()
		if policy.EdgeSetTTL != 24*time.Hour {
			t.Errorf("policy EdgeSetTTL = %v, want 24h", policy.EdgeSetTTL)
		}
	})

	t.Run("rejects conflicting report formats", func(t *testing.T) {
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"--json", "--markdown"}); err != nil {
			t.Fatal(err)
		}

		if _, _, err := buildCrawlConfig(cmd); !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("error = %v, want ErrConflictingReportFormats", err)
		}
	})

	t.Run("errors on missing explicit config file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "no-such-file")

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"--config", missing}); err != nil {
			t.Fatal(err)
		}

		if _, _, err := buildCrawlConfig(cmd); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})
}

// TestDedupeSeeds tests duplicate removal with order preservation.
func TestDedupeSeeds(t *testing.T) {
	t.Parallel()

	got := dedupeSeeds([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dedupeSeeds() = %v, want %v", got, want)
	}
}
