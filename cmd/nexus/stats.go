package main

import (
	"encoding/json"
	"fmt"

	"github.com/sahil485/neXus/internal/config"
	"github.com/sahil485/neXus/internal/graphstore"
	"github.com/sahil485/neXus/internal/model"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [actor-id]",
		Short: "Show network statistics for a crawled seed actor",
		Long: `Stats reads the local graph store and reports the size of the network
around a seed actor: how many actors it follows directly, and how many
actors and edges the store holds in total.

Examples:
  # Statistics for a crawled seed
  nexus stats 174829

  # Machine-readable output
  nexus stats --json 174829`,
		Args: cobra.ExactArgs(1),
		RunE: runStatsCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Directory for the SQLite graph store (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output statistics as JSON")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// The store must already exist; stats never creates an empty database.
	store, err := graphstore.Open(dbDir, graphstore.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open graph store (run a crawl first?): %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	if asJSON {
		return writeStatsJSON(cmd, stats)
	}
	writeStatsText(cmd, stats)
	return nil
}

// writeStatsText prints statistics in human-readable form.
func writeStatsText(cmd *cobra.Command, stats model.NetworkStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seed Actor:      %s\n", stats.SeedActorID)
	fmt.Fprintf(out, "First Degree:    %d actors\n", stats.FirstDegreeCount)
	fmt.Fprintf(out, "Actors Indexed:  %d\n", stats.ActorsIndexed)
	fmt.Fprintf(out, "Edges Indexed:   %d\n", stats.EdgesIndexed)
}

// writeStatsJSON prints statistics as indented JSON.
func writeStatsJSON(cmd *cobra.Command, stats model.NetworkStats) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(stats)
}
