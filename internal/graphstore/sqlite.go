package graphstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sahil485/neXus/internal/model"
)

// timeFormat is the fixed-width UTC layout used for timestamp columns.
// Fixed width keeps lexicographic order equal to chronological order, which
// the monotonic upsert clause and the MAX() staleness query both rely on.
// The empty string represents the zero time (stub records).
const timeFormat = "2006-01-02 15:04:05.000000000"

// dbFileName is the SQLite file name inside the data directory.
const dbFileName = "nexus.db"

// SQLite provides SQLite-backed storage for the crawled graph.
// It manages connection pooling and implements the Store interface.
//
// Design decision: One database file holds the whole graph rather than one
// per seed. Crawls of different seeds discover overlapping neighborhoods,
// and sharing the file is what lets a later crawl reuse freshness from an
// earlier one.
type SQLite struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SQLite behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent reads.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the graph database in dbDir.
func Open(dbDir string, opts Options) (*SQLite, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw / mode=rwc in the DSN to control
	// whether missing files may be created.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY churn during bulk upserts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLite{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *SQLite) createTables() error {
	schema := `
	-- Actors are directory entities. Never hard-deleted; upstream removal
	-- sets unreachable instead.
	CREATE TABLE IF NOT EXISTS actors (
		actor_id TEXT PRIMARY KEY,
		handle TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		verified INTEGER NOT NULL DEFAULT 0,
		follower_count INTEGER NOT NULL DEFAULT 0,
		following_count INTEGER NOT NULL DEFAULT 0,
		is_restricted INTEGER NOT NULL DEFAULT 0,
		unreachable INTEGER NOT NULL DEFAULT 0,
		last_refreshed_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_actors_follower_count ON actors(follower_count);

	-- Edges are directed follows relationships. Write-once per pair.
	CREATE TABLE IF NOT EXISTS edges (
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		discovered_at TEXT NOT NULL,
		PRIMARY KEY (source_id, target_id)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// GetActor retrieves an actor by ID, or nil if unknown.
func (s *SQLite) GetActor(ctx context.Context, actorID string) (*model.Actor, error) {
	query := `
	SELECT actor_id, handle, display_name, bio, location, verified,
	       follower_count, following_count, is_restricted, unreachable,
	       last_refreshed_at
	FROM actors
	WHERE actor_id = ?
	`

	var a model.Actor
	var refreshed string

	err := s.db.QueryRowContext(ctx, query, actorID).Scan(
		&a.ActorID,
		&a.Handle,
		&a.DisplayName,
		&a.Bio,
		&a.Location,
		&a.Verified,
		&a.FollowerCount,
		&a.FollowingCount,
		&a.IsRestricted,
		&a.Unreachable,
		&refreshed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}

	a.LastRefreshedAt = parseTimestamp(refreshed)
	return &a, nil
}

// getActorsChunk bounds the size of IN clauses in batch lookups.
const getActorsChunk = 500

// GetActors retrieves the subset of the given IDs that exist.
func (s *SQLite) GetActors(ctx context.Context, actorIDs []string) (map[string]model.Actor, error) {
	result := make(map[string]model.Actor, len(actorIDs))

	for start := 0; start < len(actorIDs); start += getActorsChunk {
		end := start + getActorsChunk
		if end > len(actorIDs) {
			end = len(actorIDs)
		}
		chunk := actorIDs[start:end]

		placeholders := strings.Repeat("?,", len(chunk)-1) + "?"
		query := `
		SELECT actor_id, handle, display_name, bio, location, verified,
		       follower_count, following_count, is_restricted, unreachable,
		       last_refreshed_at
		FROM actors
		WHERE actor_id IN (` + placeholders + `)`

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to get actors: %w", err)
		}

		for rows.Next() {
			var a model.Actor
			var refreshed string
			if err := rows.Scan(
				&a.ActorID, &a.Handle, &a.DisplayName, &a.Bio, &a.Location,
				&a.Verified, &a.FollowerCount, &a.FollowingCount,
				&a.IsRestricted, &a.Unreachable, &refreshed,
			); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan actor: %w", err)
			}
			a.LastRefreshedAt = parseTimestamp(refreshed)
			result[a.ActorID] = a
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to iterate actors: %w", err)
		}
		rows.Close()
	}

	return result, nil
}

// GetEdgesFrom returns all outgoing edges of an actor.
func (s *SQLite) GetEdgesFrom(ctx context.Context, actorID string) ([]model.Edge, error) {
	query := `
	SELECT source_id, target_id, discovered_at
	FROM edges
	WHERE source_id = ?
	`

	rows, err := s.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get edges: %w", err)
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		var e model.Edge
		var discovered string
		if err := rows.Scan(&e.SourceID, &e.TargetID, &discovered); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.DiscoveredAt = parseTimestamp(discovered)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edges: %w", err)
	}

	return edges, nil
}

// EdgeSetRefreshedAt returns the newest DiscoveredAt among the actor's
// outgoing edges, or the zero time if none are stored.
func (s *SQLite) EdgeSetRefreshedAt(ctx context.Context, actorID string) (time.Time, error) {
	query := `SELECT COALESCE(MAX(discovered_at), '') FROM edges WHERE source_id = ?`

	var newest string
	if err := s.db.QueryRowContext(ctx, query, actorID).Scan(&newest); err != nil {
		return time.Time{}, fmt.Errorf("failed to get edge-set freshness: %w", err)
	}

	return parseTimestamp(newest), nil
}

// BulkUpsertActors inserts or updates actors in one transaction.
//
// The conflict clause enforces two invariants:
//   - last_refreshed_at never moves backwards (monotonic per actor)
//   - a stub proposal (zero timestamp) never clobbers fetched profile data,
//     because '' sorts before every real timestamp
func (s *SQLite) BulkUpsertActors(ctx context.Context, actors []model.Actor) error {
	if len(actors) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	query := `
	INSERT INTO actors (actor_id, handle, display_name, bio, location, verified,
	                    follower_count, following_count, is_restricted, unreachable,
	                    last_refreshed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(actor_id) DO UPDATE SET
		handle = excluded.handle,
		display_name = excluded.display_name,
		bio = excluded.bio,
		location = excluded.location,
		verified = excluded.verified,
		follower_count = excluded.follower_count,
		following_count = excluded.following_count,
		is_restricted = excluded.is_restricted,
		unreachable = excluded.unreachable,
		last_refreshed_at = excluded.last_refreshed_at
	WHERE excluded.last_refreshed_at >= actors.last_refreshed_at
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare actor upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range actors {
		if _, err := stmt.ExecContext(ctx,
			a.ActorID,
			a.Handle,
			a.DisplayName,
			a.Bio,
			a.Location,
			a.Verified,
			a.FollowerCount,
			a.FollowingCount,
			a.IsRestricted,
			a.Unreachable,
			formatTimestamp(a.LastRefreshedAt),
		); err != nil {
			return fmt.Errorf("failed to upsert actor %s: %w", a.ActorID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit actor upserts: %w", err)
	}
	return nil
}

// BulkUpsertEdges inserts edges in one transaction. Pairs that already exist
// are ignored, keeping their original discovery time; a fresher re-fetch of
// a following list therefore diffs into the stored set instead of replacing
// it.
func (s *SQLite) BulkUpsertEdges(ctx context.Context, edges []model.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	query := `
	INSERT INTO edges (source_id, target_id, discovered_at)
	VALUES (?, ?, ?)
	ON CONFLICT(source_id, target_id) DO NOTHING
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare edge upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.SourceID, e.TargetID, formatTimestamp(e.DiscoveredAt)); err != nil {
			return fmt.Errorf("failed to upsert edge %s->%s: %w", e.SourceID, e.TargetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit edge upserts: %w", err)
	}
	return nil
}

// Stats returns network statistics centered on the given seed.
func (s *SQLite) Stats(ctx context.Context, seedActorID string) (model.NetworkStats, error) {
	stats := model.NetworkStats{SeedActorID: seedActorID}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM edges WHERE source_id = ?`, seedActorID,
	).Scan(&stats.FirstDegreeCount); err != nil {
		return stats, fmt.Errorf("failed to count first-degree edges: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM actors`,
	).Scan(&stats.ActorsIndexed); err != nil {
		return stats, fmt.Errorf("failed to count actors: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM edges`,
	).Scan(&stats.EdgesIndexed); err != nil {
		return stats, fmt.Errorf("failed to count edges: %w", err)
	}

	return stats, nil
}

// formatTimestamp renders a time as a fixed-width UTC string, or an empty
// string for the zero time.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

// parseTimestamp parses a stored timestamp, returning the zero time for an
// empty or unparseable value.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
