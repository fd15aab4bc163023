package graphstore

import (
	"context"
	"time"

	"github.com/sahil485/neXus/internal/model"
)

// Store is the interface the ingestion pipeline uses to read the existing
// graph and to persist crawl results. Implementations must make every write
// idempotent.
//
// Lookup methods return (nil, nil) for records that do not exist; absence is
// an ordinary answer during a crawl, not an error.
type Store interface {
	// GetActor returns the actor with the given ID, or nil if unknown.
	GetActor(ctx context.Context, actorID string) (*model.Actor, error)

	// GetActors returns the subset of the given IDs that exist, keyed by
	// ActorID. Missing IDs are simply absent from the map.
	GetActors(ctx context.Context, actorIDs []string) (map[string]model.Actor, error)

	// GetEdgesFrom returns all outgoing follow edges of an actor.
	GetEdgesFrom(ctx context.Context, actorID string) ([]model.Edge, error)

	// EdgeSetRefreshedAt returns the newest DiscoveredAt among the actor's
	// outgoing edges: the staleness signal for the edge-set data class.
	// The zero time means no edges are stored.
	EdgeSetRefreshedAt(ctx context.Context, actorID string) (time.Time, error)

	// BulkUpsertActors inserts or updates actors in one transaction.
	// Updates never move last_refreshed_at backwards.
	BulkUpsertActors(ctx context.Context, actors []model.Actor) error

	// BulkUpsertEdges inserts edges in one transaction, ignoring pairs that
	// already exist. Existing rows keep their original DiscoveredAt.
	BulkUpsertEdges(ctx context.Context, edges []model.Edge) error

	// Stats returns network statistics centered on the given seed.
	Stats(ctx context.Context, seedActorID string) (model.NetworkStats, error)

	// Close releases the underlying storage.
	Close() error
}
