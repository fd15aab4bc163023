package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sahil485/neXus/internal/config"
	"github.com/sahil485/neXus/internal/crawl"
	"github.com/sahil485/neXus/internal/directory"
	"github.com/sahil485/neXus/internal/graphstore"
	nexuslog "github.com/sahil485/neXus/internal/log"
	"github.com/sahil485/neXus/internal/model"
	"github.com/sahil485/neXus/internal/quota"
	"github.com/sahil485/neXus/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [actor-id...]",
		Short: "Crawl the two-hop neighborhood of one or more seed actors",
		Long: `Crawl expands each seed actor's neighborhood two hops deep.

For every seed it fetches the following list, refreshes the profiles of all
first-degree actors, selects the most-followed of them as fan-out roots, and
fetches their following lists in turn. Actors and follow edges are upserted
into the local SQLite graph store; records that are still fresh are reused
without hitting the upstream.

The bearer credential is read from the NEXUS_BEARER_TOKEN environment
variable unless --credential is given.

Examples:
  # Crawl a single seed
  nexus crawl 174829

  # Crawl several seeds with two crawls running at a time
  nexus crawl --batch 2 174829 99120 55102

  # Tighter fan-out and fresh-edge window
  nexus crawl --fanout 25 --edge-ttl 24h 174829

  # Route API traffic through a SOCKS5 proxy
  nexus crawl --proxy 127.0.0.1:1080 174829

  # Write a Markdown summary to a file
  nexus crawl --markdown --output summary.md 174829

Configuration file (.nexus) example:
  defaults:
    fanoutLimit: 50
  seeds:
    "174829":
      fanoutLimit: 10
      edgeSetTTL: 24h`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Upstream connection flags
	cmd.Flags().StringP("credential", "C", "",
		"Bearer credential for the directory API (default: NEXUS_BEARER_TOKEN env)")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address for API traffic (e.g., 127.0.0.1:1080)")
	cmd.Flags().DurationP("call-timeout", "t", config.DefaultCallTimeout,
		"Timeout for each directory API call")

	// Quota flags
	cmd.Flags().Int("quota-capacity", config.DefaultQuotaCapacity,
		"Number of API calls allowed per quota window")
	cmd.Flags().Duration("quota-window", config.DefaultQuotaWindow,
		"Length of the quota window")

	// Expansion flags
	cmd.Flags().IntP("fanout", "k", config.DefaultFanoutLimit,
		"Maximum first-degree actors expanded a second hop")
	cmd.Flags().Int("floor", config.DefaultFollowerFloor,
		"Minimum follower count for an actor to be expanded")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Concurrent fetches within each crawl phase")
	cmd.Flags().Duration("ceiling", config.DefaultCrawlCeiling,
		"Wall-clock limit for one crawl request")
	cmd.Flags().Int("page-size", config.DefaultPageSize,
		"Following-list page size requested per API call")

	// Staleness flags
	cmd.Flags().Duration("profile-ttl", 0,
		"How long fetched profiles stay fresh (default 24h)")
	cmd.Flags().Duration("edge-ttl", 0,
		"How long fetched following lists stay fresh (default 168h)")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", 1,
		"Number of seeds crawled concurrently")

	// Storage and configuration flags
	cmd.Flags().String("db-dir", "",
		"Directory for the SQLite graph store (default: XDG data directory)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .nexus in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, batch, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential redaction
	logger := nexuslog.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, dedupeSeeds(args), batch, logger)
}

// buildCrawlConfig creates a Config from cobra command flags. The batch
// concurrency is returned separately because it shapes the CLI run, not the
// pipeline itself.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, int, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Credential, err = cmd.Flags().GetString("credential")
	if err != nil {
		return nil, 0, err
	}
	if cfg.Credential == "" {
		cfg.Credential = os.Getenv(config.CredentialEnv)
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, 0, err
	}

	cfg.CallTimeout, err = cmd.Flags().GetDuration("call-timeout")
	if err != nil {
		return nil, 0, err
	}

	cfg.QuotaCapacity, err = cmd.Flags().GetInt("quota-capacity")
	if err != nil {
		return nil, 0, err
	}

	cfg.QuotaWindow, err = cmd.Flags().GetDuration("quota-window")
	if err != nil {
		return nil, 0, err
	}

	cfg.FanoutLimit, err = cmd.Flags().GetInt("fanout")
	if err != nil {
		return nil, 0, err
	}

	cfg.FollowerFloor, err = cmd.Flags().GetInt("floor")
	if err != nil {
		return nil, 0, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, 0, err
	}

	cfg.CrawlCeiling, err = cmd.Flags().GetDuration("ceiling")
	if err != nil {
		return nil, 0, err
	}

	cfg.PageSize, err = cmd.Flags().GetInt("page-size")
	if err != nil {
		return nil, 0, err
	}

	cfg.ProfileTTL, err = cmd.Flags().GetDuration("profile-ttl")
	if err != nil {
		return nil, 0, err
	}

	cfg.EdgeSetTTL, err = cmd.Flags().GetDuration("edge-ttl")
	if err != nil {
		return nil, 0, err
	}

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, 0, err
	}
	if batch < 1 {
		batch = 1
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, 0, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, 0, err
	}

	// Load per-seed configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Seeds, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, 0, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Seeds = &config.File{
			Seeds: make(map[string]config.SeedConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, 0, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, 0, err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return nil, 0, config.ErrConflictingReportFormats
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, 0, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, batch, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// dedupeSeeds removes duplicate seed IDs while preserving order.
func dedupeSeeds(seeds []string) []string {
	seen := make(map[string]struct{}, len(seeds))
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// runCrawl executes the crawl for each seed.
func runCrawl(ctx context.Context, cfg *config.Config, seeds []string, batch int, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", seeds,
		"batch", batch,
		"fanout_limit", cfg.FanoutLimit,
		"workers", cfg.Workers,
	)

	store, err := graphstore.Open(cfg.DBDir, graphstore.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open graph store: %w", err)
	}
	defer store.Close()
	logger.Info("graph store opened", "dir", cfg.DBDir)

	// All seeds share one quota budget regardless of batch concurrency.
	governor, err := quota.NewGovernor(cfg.QuotaCapacity, cfg.QuotaWindow, quota.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create quota governor: %w", err)
	}

	factory, err := newClientFactory(cfg, governor, logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batch)

	for i, seed := range seeds {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			fmt.Printf("[%d/%d] Crawling %s...\n", i+1, len(seeds), seed)
			summary, err := runSeedCrawl(ctx, cfg, store, factory, seed, logger)
			if err != nil {
				// A failed seed does not abort its siblings; the summary
				// carries the error and partial results stay persisted.
				logger.Error("crawl failed", "seed_actor_id", seed, "error", err)
			}

			if err := outputSummary(cfg, summary); err != nil {
				logger.Error("summary output failed", "seed_actor_id", seed, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// runSeedCrawl builds an orchestrator tuned for one seed and runs it.
// Per-seed overrides from the .nexus file take precedence over global flags.
func runSeedCrawl(ctx context.Context, cfg *config.Config, store graphstore.Store, factory crawl.ClientFactory, seed string, logger *slog.Logger) (model.CrawlSummary, error) {
	fanout := cfg.FanoutLimit
	floor := cfg.FollowerFloor
	policy := cfg.StalenessPolicy()

	if cfg.Seeds != nil {
		sc := cfg.Seeds.GetSeedConfig(seed)
		if sc.FanoutLimit > 0 {
			fanout = sc.FanoutLimit
		}
		if sc.FollowerFloor > 0 {
			floor = sc.FollowerFloor
		}
		if sc.EdgeSetTTL > 0 {
			policy.EdgeSetTTL = sc.EdgeSetTTL
		}
	}

	o := crawl.NewOrchestrator(store, factory,
		crawl.WithLogger(logger),
		crawl.WithFanoutLimit(fanout),
		crawl.WithFollowerFloor(floor),
		crawl.WithWorkers(cfg.Workers),
		crawl.WithCeiling(cfg.CrawlCeiling),
		crawl.WithStalenessPolicy(policy),
	)

	return o.Run(ctx, model.NewCrawlRequest(seed, cfg.Credential))
}

// newClientFactory builds the directory client factory, wiring the optional
// SOCKS5 proxy and shared quota governor.
func newClientFactory(cfg *config.Config, governor *quota.Governor, logger *slog.Logger) (crawl.ClientFactory, error) {
	var httpClient *http.Client
	if cfg.ProxyAddress != "" {
		var err error
		httpClient, err = directory.NewProxiedHTTPClient(cfg.ProxyAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to create proxied client: %w", err)
		}
		logger.Info("routing API traffic through proxy", "proxy", cfg.ProxyAddress)
	}

	return func(credential string) crawl.DirectoryClient {
		opts := []directory.Option{
			directory.WithBaseURL(cfg.APIBaseURL),
			directory.WithPageSize(cfg.PageSize),
			directory.WithCallTimeout(cfg.CallTimeout),
			directory.WithLogger(logger),
		}
		if httpClient != nil {
			opts = append(opts, directory.WithHTTPClient(httpClient))
		}
		return directory.NewClient(credential, governor, opts...)
	}, nil
}

// outputSummary writes the crawl summary in the requested format.
func outputSummary(cfg *config.Config, summary model.CrawlSummary) error {
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Append so multi-seed runs collect all summaries in one file
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewVersionedJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(summary)
	return err
}
