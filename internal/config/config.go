package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/sahil485/neXus/internal/staleness"
)

// Default configuration values. The quota numbers track the upstream
// directory's published limit (roughly 1500 calls per 15-minute window in
// user context); everything else is tuned to keep a two-hop crawl bounded in
// both quota cost and wall-clock time.
const (
	// DefaultAPIBaseURL is the upstream directory API root.
	DefaultAPIBaseURL = "https://api.twitter.com/2"

	// DefaultQuotaCapacity is the token bucket capacity. Set below the
	// published 1500-per-window limit to leave a safety margin for calls
	// made outside this process against the same credential.
	DefaultQuotaCapacity = 1400

	// DefaultQuotaWindow is the upstream quota window.
	DefaultQuotaWindow = 15 * time.Minute

	// DefaultFanoutLimit caps how many first-degree actors are used as
	// roots for second-degree expansion. An unranked expansion over 500
	// first-degree actors with 500 following each would imply up to 250,000
	// fetch candidates; capping the fan-out base bounds this to a small
	// multiple of the limit.
	DefaultFanoutLimit = 100

	// DefaultFollowerFloor is the minimum follower count for an actor to be
	// considered as an expansion root. Accounts below the floor consume
	// quota without adding useful graph value.
	DefaultFollowerFloor = 50

	// DefaultWorkers is the size of the worker pool used within each crawl
	// phase. It bounds memory and connection usage independent of quota,
	// and keeps quota demand steady rather than bursty.
	DefaultWorkers = 10

	// DefaultCallTimeout is the per-request timeout for directory API calls.
	DefaultCallTimeout = 30 * time.Second

	// DefaultCrawlCeiling is the wall-clock ceiling for one crawl request.
	// A crawl that exceeds it fails with whatever was persisted so far
	// retained. Two hops under a ~1.56 tokens/sec refill rate can
	// legitimately take a long time, so the ceiling is generous.
	DefaultCrawlCeiling = 45 * time.Minute

	// DefaultPageSize is the page size requested from the following-list
	// endpoint. The upstream maximum is 1000; larger pages mean fewer
	// quota tokens per drained list.
	DefaultPageSize = 1000

	// AppName is the application name used for XDG directory paths.
	AppName = "nexus"

	// CredentialEnv is the environment variable holding the bearer
	// credential when the --credential flag is not used.
	CredentialEnv = "NEXUS_BEARER_TOKEN"
)

// Config holds all options for the ingestion pipeline. It is populated from
// CLI flags plus the optional .nexus file and passed down by injection.
//
// Design decision: We use a single flat struct instead of nested sub-configs
// because the option count is manageable and nesting would add indirection
// without benefit. Per-seed tuning lives in File/SeedConfig instead.
type Config struct {
	// APIBaseURL is the upstream directory API root.
	APIBaseURL string

	// Credential is the bearer credential for directory API calls.
	Credential string

	// ProxyAddress is an optional SOCKS5 proxy for outbound API traffic in
	// "host:port" format. Empty means direct connections.
	ProxyAddress string

	// QuotaCapacity and QuotaWindow parameterize the shared token bucket:
	// QuotaCapacity calls allowed per QuotaWindow.
	QuotaCapacity int
	QuotaWindow   time.Duration

	// FanoutLimit is the maximum number of first-degree actors used as
	// second-degree expansion roots.
	FanoutLimit int

	// FollowerFloor is the minimum follower count for expansion roots.
	FollowerFloor int

	// Workers is the per-phase worker pool size.
	Workers int

	// CallTimeout is the per-request timeout for directory API calls.
	CallTimeout time.Duration

	// CrawlCeiling is the wall-clock limit for one crawl request.
	CrawlCeiling time.Duration

	// PageSize is the following-list page size requested per call.
	PageSize int

	// ProfileTTL, EdgeSetTTL and DerivedTTL override the staleness policy
	// TTL table. Zero means use the policy default.
	ProfileTTL time.Duration
	EdgeSetTTL time.Duration
	DerivedTTL time.Duration

	// DBDir is the directory holding the SQLite graph store.
	// Defaults to the XDG data directory.
	DBDir string

	// Verbose enables debug-level logging.
	Verbose bool

	// ConfigFilePath is the explicit path to the .nexus file, if any.
	ConfigFilePath string

	// Seeds holds per-seed overrides loaded from the config file.
	Seeds *File

	// JSONReport and MarkdownReport select the crawl summary output format.
	// Mutually exclusive; the default is the human-readable text report.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the crawl summary to a file instead of stdout.
	ReportFile string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		APIBaseURL:    DefaultAPIBaseURL,
		QuotaCapacity: DefaultQuotaCapacity,
		QuotaWindow:   DefaultQuotaWindow,
		FanoutLimit:   DefaultFanoutLimit,
		FollowerFloor: DefaultFollowerFloor,
		Workers:       DefaultWorkers,
		CallTimeout:   DefaultCallTimeout,
		CrawlCeiling:  DefaultCrawlCeiling,
		PageSize:      DefaultPageSize,
		DBDir:         XDGDataDir(),
	}
}

// Validate checks the configuration for invalid values and returns the first
// sentinel error encountered.
func (c *Config) Validate() error {
	if c.Credential == "" {
		return ErrNoCredential
	}
	if c.QuotaCapacity <= 0 || c.QuotaWindow <= 0 {
		return ErrInvalidQuota
	}
	if c.FanoutLimit <= 0 {
		return ErrInvalidFanoutLimit
	}
	if c.FollowerFloor < 0 {
		return ErrInvalidFollowerFloor
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.CallTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.PageSize <= 0 || c.PageSize > 1000 {
		return ErrInvalidPageSize
	}
	return nil
}

// StalenessPolicy builds the TTL policy from the config, falling back to the
// policy defaults for any unset TTL.
func (c *Config) StalenessPolicy() staleness.Policy {
	p := staleness.NewPolicy()
	if c.ProfileTTL > 0 {
		p.ProfileTTL = c.ProfileTTL
	}
	if c.EdgeSetTTL > 0 {
		p.EdgeSetTTL = c.EdgeSetTTL
	}
	if c.DerivedTTL > 0 {
		p.DerivedTTL = c.DerivedTTL
	}
	return p
}

// XDGDataDir returns the XDG data directory for the graph store.
// On Linux: ~/.local/share/nexus
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory.
// On Linux: ~/.config/nexus
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
