package crawl

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sahil485/neXus/internal/config"
	"github.com/sahil485/neXus/internal/directory"
	"github.com/sahil485/neXus/internal/graphstore"
	"github.com/sahil485/neXus/internal/model"
	"github.com/sahil485/neXus/internal/staleness"
	"golang.org/x/sync/errgroup"
)

// DirectoryClient is the orchestrator's view of the upstream directory API.
// It is satisfied by *directory.Client and mocked in tests.
type DirectoryClient interface {
	// FetchActor looks up a single actor profile by ID.
	FetchActor(ctx context.Context, actorID string) (model.Actor, directory.Outcome, error)

	// FetchFollowing returns the complete following list for an actor,
	// with all pages drained.
	FetchFollowing(ctx context.Context, actorID string) ([]model.Actor, directory.Outcome, error)
}

// ClientFactory builds a directory client bound to a bearer credential.
// Each crawl request carries its own credential, so the orchestrator
// constructs a client per run rather than holding a single one.
type ClientFactory func(credential string) DirectoryClient

// Decision is the answer to a crawl trigger. The trigger interface only ever
// reports acceptance; final success or failure is observable through the
// freshness timestamps on persisted records.
type Decision struct {
	// Accepted is true when a new crawl was started for the seed.
	Accepted bool `json:"accepted"`

	// Reason explains a rejection. Empty when Accepted is true.
	Reason string `json:"reason,omitempty"`
}

// ReasonAlreadyInFlight is the rejection reason when a crawl for the same
// seed is still running.
const ReasonAlreadyInFlight = "already_in_flight"

// Orchestrator runs crawl requests: it expands a seed actor's neighborhood
// two hops deep, staleness-gated and quota-bounded, and persists the result.
type Orchestrator struct {
	store     graphstore.Store
	newClient ClientFactory
	registry  *Registry
	ranker    Ranker
	policy    staleness.Policy

	fanoutLimit   int
	followerFloor int
	workers       int
	ceiling       time.Duration

	logger *slog.Logger
	now    func() time.Time

	// onComplete, when set, receives the summary of every background run
	// started through StartCrawl.
	onComplete func(model.CrawlSummary)

	wg sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithRanker replaces the fan-out ranking policy.
func WithRanker(r Ranker) Option {
	return func(o *Orchestrator) {
		o.ranker = r
	}
}

// WithStalenessPolicy replaces the default TTLs.
func WithStalenessPolicy(p staleness.Policy) Option {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// WithFanoutLimit caps how many first-degree actors become second-degree
// expansion roots. Default is 100.
func WithFanoutLimit(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.fanoutLimit = k
		}
	}
}

// WithFollowerFloor sets the minimum follower count for expansion.
// Default is 50.
func WithFollowerFloor(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.followerFloor = n
		}
	}
}

// WithWorkers sets the in-crawl worker pool size. Default is 10.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithCeiling sets the wall-clock ceiling for one crawl request.
func WithCeiling(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.ceiling = d
		}
	}
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithOnComplete registers a callback invoked with the summary of every
// background run. The callback runs on the crawl goroutine.
func WithOnComplete(fn func(model.CrawlSummary)) Option {
	return func(o *Orchestrator) {
		o.onComplete = fn
	}
}

// NewOrchestrator creates an orchestrator backed by the given store and
// client factory.
func NewOrchestrator(store graphstore.Store, newClient ClientFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:         store,
		newClient:     newClient,
		registry:      NewRegistry(),
		ranker:        FollowerCountRanker{},
		policy:        staleness.NewPolicy(),
		fanoutLimit:   config.DefaultFanoutLimit,
		followerFloor: config.DefaultFollowerFloor,
		workers:       config.DefaultWorkers,
		ceiling:       config.DefaultCrawlCeiling,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}

// StartCrawl is the fire-and-forget trigger. It reserves the seed, starts
// the crawl on its own goroutine, and returns immediately. When a crawl for
// the same seed is already in flight the duplicate trigger is rejected with
// ReasonAlreadyInFlight; this is an idempotent no-op, not an error.
func (o *Orchestrator) StartCrawl(seedActorID, credential string) Decision {
	if !o.registry.Begin(seedActorID) {
		return Decision{Accepted: false, Reason: ReasonAlreadyInFlight}
	}

	req := model.NewCrawlRequest(seedActorID, credential)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.registry.End(seedActorID)

		summary, err := o.run(context.Background(), req)
		if err != nil {
			o.logger.Error("crawl failed",
				"request_id", req.ID.String(),
				"seed_actor_id", seedActorID,
				"error", err,
			)
		}
		if o.onComplete != nil {
			o.onComplete(summary)
		}
	}()

	return Decision{Accepted: true}
}

// Run executes a crawl request synchronously and returns its summary. It
// shares the in-flight registry with StartCrawl, so a seed being crawled in
// the background cannot be crawled again concurrently.
func (o *Orchestrator) Run(ctx context.Context, req model.CrawlRequest) (model.CrawlSummary, error) {
	if !o.registry.Begin(req.SeedActorID) {
		return model.CrawlSummary{}, ErrAlreadyInFlight
	}
	defer o.registry.End(req.SeedActorID)

	return o.run(ctx, req)
}

// Wait blocks until all background crawls started via StartCrawl finish.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// run drives one crawl request through its state machine.
//
// Phases are strictly ordered: the seed resolves first, the whole first
// degree is fetched and persisted next, and only then are fan-out candidates
// selected and expanded. Partial results are persisted before a fatal error
// is surfaced, so every record written by an aborted run remains valid.
func (o *Orchestrator) run(ctx context.Context, req model.CrawlRequest) (model.CrawlSummary, error) {
	start := o.now()
	logger := o.logger.With(
		"request_id", req.ID.String(),
		"seed_actor_id", req.SeedActorID,
	)

	ctx, cancel := context.WithTimeout(ctx, o.ceiling)
	defer cancel()

	client := o.newClient(req.Credential)
	t := newTally()

	fail := func(state model.CrawlState, err error) (model.CrawlSummary, error) {
		logger.Error("crawl aborted", "state", state.String(), "error", err)
		s := o.summarize(req, model.StateFailed, t, start)
		s.ErrorMessage = err.Error()
		return s, err
	}

	logger.Info("crawl started",
		"fanout_limit", o.fanoutLimit,
		"follower_floor", o.followerFloor,
		"workers", o.workers,
	)

	// Resolve the seed profile. A restricted or missing seed is terminal.
	seed, err := o.resolveSeed(ctx, client, req.SeedActorID, t)
	if err != nil {
		return fail(model.StateFetchingSeed, err)
	}

	// First-degree expansion: following list plus a profile refresh for
	// every first-degree actor, all persisted before candidate selection.
	firstDegree, err := o.expandFirstDegree(ctx, client, seed, t, logger)
	if err != nil {
		return fail(model.StateExpandingFirstDegree, err)
	}
	t.setFirstDegree(len(firstDegree))

	logger.Info("first degree persisted", "actors", len(firstDegree))

	candidates := SelectCandidates(firstDegree, o.ranker, o.fanoutLimit, o.followerFloor)

	// Second-degree expansion over the ranked candidates. Collected results
	// are persisted even when the phase aborts partway.
	actors, edges, expandErr := o.expandSecondDegree(ctx, client, req.SeedActorID, firstDegree, candidates, t, logger)

	if err := o.persist(ctx, actors, edges, t); err != nil {
		return fail(model.StatePersisting, err)
	}
	if expandErr != nil {
		return fail(model.StateExpandingSecondDegree, expandErr)
	}

	summary := o.summarize(req, model.StateDone, t, start)
	logger.Info("crawl complete",
		"first_degree", summary.FirstDegreeCount,
		"second_degree", summary.SecondDegreeCount,
		"actors_upserted", summary.ActorsUpserted,
		"edges_upserted", summary.EdgesUpserted,
		"fetches", summary.FetchesPerformed,
		"skipped_fresh", summary.SkippedFresh,
		"duration", summary.Duration,
	)
	return summary, nil
}

// resolveSeed returns a usable seed profile, fetching it only when the
// stored record is missing or stale.
func (o *Orchestrator) resolveSeed(ctx context.Context, client DirectoryClient, seedID string, t *tally) (model.Actor, error) {
	stored, err := o.store.GetActor(ctx, seedID)
	if err != nil {
		return model.Actor{}, err
	}

	if stored != nil {
		switch {
		case stored.IsRestricted:
			return model.Actor{}, ErrSeedRestricted
		case stored.Unreachable:
			return model.Actor{}, ErrSeedNotFound
		case !stored.IsStub() && o.policy.IsFresh(stored.LastRefreshedAt, staleness.ClassProfile, o.now()):
			t.addSkippedFresh(1)
			return *stored, nil
		}
	}

	actor, outcome, err := client.FetchActor(ctx, seedID)
	t.addPerformed(1)
	if err != nil {
		return model.Actor{}, err
	}

	switch outcome {
	case directory.OutcomeNotFound:
		t.addNotFound(1)
		if err := o.persist(ctx, []model.Actor{o.markUnreachable(stored, seedID)}, nil, t); err != nil {
			return model.Actor{}, err
		}
		return model.Actor{}, ErrSeedNotFound
	case directory.OutcomeRestricted:
		t.addRestricted(1)
		if err := o.persist(ctx, []model.Actor{o.markRestricted(stored, seedID)}, nil, t); err != nil {
			return model.Actor{}, err
		}
		return model.Actor{}, ErrSeedRestricted
	}

	if err := o.persist(ctx, []model.Actor{actor}, nil, t); err != nil {
		return model.Actor{}, err
	}
	return actor, nil
}

// expandFirstDegree produces the seed's complete first-degree actor set with
// refreshed profiles, persisting actors and edges before returning.
//
// When the stored edge set is still fresh the following list is not fetched;
// the crawl proceeds on the persisted edges instead. Skipping the fetch is
// not skipping the crawl.
func (o *Orchestrator) expandFirstDegree(ctx context.Context, client DirectoryClient, seed model.Actor, t *tally, logger *slog.Logger) ([]model.Actor, error) {
	refreshedAt, err := o.store.EdgeSetRefreshedAt(ctx, seed.ActorID)
	if err != nil {
		return nil, err
	}

	if !refreshedAt.IsZero() && o.policy.IsFresh(refreshedAt, staleness.ClassEdgeSet, o.now()) {
		t.addSkippedFresh(1)
		logger.Debug("seed edge set fresh, using stored edges", "refreshed_at", refreshedAt)

		edges, err := o.store.GetEdgesFrom(ctx, seed.ActorID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(edges))
		for _, e := range edges {
			ids = append(ids, e.TargetID)
		}

		actors, refreshErr := o.refreshProfiles(ctx, client, ids, t, logger)
		if err := o.persist(ctx, actors, nil, t); err != nil {
			return nil, err
		}
		if refreshErr != nil {
			return nil, refreshErr
		}
		return actors, nil
	}

	following, outcome, err := client.FetchFollowing(ctx, seed.ActorID)
	t.addPerformed(1)
	if err != nil {
		// The whole crawl depends on the seed's following list, so even a
		// transient exhaustion is terminal here.
		return nil, err
	}

	switch outcome {
	case directory.OutcomeRestricted:
		t.addRestricted(1)
		if err := o.persist(ctx, []model.Actor{o.markRestricted(&seed, seed.ActorID)}, nil, t); err != nil {
			return nil, err
		}
		return nil, ErrSeedRestricted
	case directory.OutcomeNotFound:
		t.addNotFound(1)
		if err := o.persist(ctx, []model.Actor{o.markUnreachable(&seed, seed.ActorID)}, nil, t); err != nil {
			return nil, err
		}
		return nil, ErrSeedNotFound
	}

	now := o.now()
	edges := make([]model.Edge, 0, len(following))
	for _, a := range following {
		edges = append(edges, model.Edge{
			SourceID:     seed.ActorID,
			TargetID:     a.ActorID,
			DiscoveredAt: now,
		})
	}

	if err := o.persist(ctx, following, edges, t); err != nil {
		return nil, err
	}
	return following, nil
}

// refreshProfiles returns a profile for every given actor ID, fetching only
// the stale or unknown ones through the worker pool. Restricted and
// unreachable records are kept as-is and never re-queried.
//
// A non-nil error means the phase must abort; the returned slice still holds
// everything collected before the abort so the caller can persist it.
func (o *Orchestrator) refreshProfiles(ctx context.Context, client DirectoryClient, ids []string, t *tally, logger *slog.Logger) ([]model.Actor, error) {
	stored, err := o.store.GetActors(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := o.now()
	actors := make([]model.Actor, 0, len(ids))
	stale := make([]string, 0, len(ids))

	for _, id := range ids {
		a, ok := stored[id]
		if !ok {
			stale = append(stale, id)
			continue
		}
		switch {
		case a.IsRestricted:
			t.addRestricted(1)
			actors = append(actors, a)
		case a.Unreachable:
			actors = append(actors, a)
		case !a.IsStub() && o.policy.IsFresh(a.LastRefreshedAt, staleness.ClassProfile, now):
			t.addSkippedFresh(1)
			actors = append(actors, a)
		default:
			stale = append(stale, id)
		}
	}

	var mu sync.Mutex
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	// Fetches already dispatched run to completion even if the group is
	// cancelled; the per-call timeout inside the client bounds them.
	fetchCtx := context.WithoutCancel(ctx)

	for _, id := range stale {
		g.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			actor, outcome, err := client.FetchActor(fetchCtx, id)
			t.addPerformed(1)

			switch {
			case errors.Is(err, directory.ErrUnauthorized):
				return err
			case err != nil:
				// Per-actor isolation: one actor's failure does not abort
				// its siblings.
				logger.Warn("profile fetch failed", "actor_id", id, "error", err)
				return nil
			}

			var record model.Actor
			switch outcome {
			case directory.OutcomeFound:
				record = actor
			case directory.OutcomeNotFound:
				t.addNotFound(1)
				prev, ok := stored[id]
				var base *model.Actor
				if ok {
					base = &prev
				}
				record = o.markUnreachable(base, id)
			case directory.OutcomeRestricted:
				t.addRestricted(1)
				prev, ok := stored[id]
				var base *model.Actor
				if ok {
					base = &prev
				}
				record = o.markRestricted(base, id)
			}

			mu.Lock()
			actors = append(actors, record)
			mu.Unlock()
			return nil
		})
	}

	return actors, g.Wait()
}

// expandSecondDegree fetches the following lists of the ranked candidates,
// collects the union of newly discovered second-degree actors, and refreshes
// their profiles. It returns everything collected plus the first error that
// aborted the phase, if any; the caller persists regardless.
func (o *Orchestrator) expandSecondDegree(ctx context.Context, client DirectoryClient, seedID string, firstDegree []model.Actor, candidates []model.Actor, t *tally, logger *slog.Logger) ([]model.Actor, []model.Edge, error) {
	known := make(map[string]struct{}, len(firstDegree)+1)
	known[seedID] = struct{}{}
	for _, a := range firstDegree {
		known[a.ActorID] = struct{}{}
	}

	var (
		mu        sync.Mutex
		actors    []model.Actor
		edges     []model.Edge
		profiles  = make(map[string]struct{}) // second-degree IDs with a full profile in hand
		cachedIDs = make(map[string]struct{}) // second-degree IDs known only from stored edges
	)

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	fetchCtx := context.WithoutCancel(ctx)

	for _, candidate := range candidates {
		g.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			refreshedAt, err := o.store.EdgeSetRefreshedAt(fetchCtx, candidate.ActorID)
			if err != nil {
				return err
			}
			if !refreshedAt.IsZero() && o.policy.IsFresh(refreshedAt, staleness.ClassEdgeSet, o.now()) {
				t.addSkippedFresh(1)
				stored, err := o.store.GetEdgesFrom(fetchCtx, candidate.ActorID)
				if err != nil {
					return err
				}
				mu.Lock()
				for _, e := range stored {
					cachedIDs[e.TargetID] = struct{}{}
				}
				mu.Unlock()
				return nil
			}

			following, outcome, err := client.FetchFollowing(fetchCtx, candidate.ActorID)
			t.addPerformed(1)

			switch {
			case errors.Is(err, directory.ErrUnauthorized):
				return err
			case err != nil:
				logger.Warn("following fetch failed", "actor_id", candidate.ActorID, "error", err)
				return nil
			}

			switch outcome {
			case directory.OutcomeRestricted:
				t.addRestricted(1)
				mu.Lock()
				actors = append(actors, o.markRestricted(&candidate, candidate.ActorID))
				mu.Unlock()
				return nil
			case directory.OutcomeNotFound:
				t.addNotFound(1)
				mu.Lock()
				actors = append(actors, o.markUnreachable(&candidate, candidate.ActorID))
				mu.Unlock()
				return nil
			}

			now := o.now()
			mu.Lock()
			for _, a := range following {
				edges = append(edges, model.Edge{
					SourceID:     candidate.ActorID,
					TargetID:     a.ActorID,
					DiscoveredAt: now,
				})
				if _, dup := profiles[a.ActorID]; dup {
					continue
				}
				profiles[a.ActorID] = struct{}{}
				actors = append(actors, a)
			}
			mu.Unlock()
			return nil
		})
	}

	expandErr := g.Wait()

	// Count distinct second-degree discoveries and refresh profiles for
	// actors reached only through stored edges.
	secondDegree := 0
	for id := range profiles {
		if _, ok := known[id]; !ok {
			secondDegree++
		}
	}

	missing := make([]string, 0, len(cachedIDs))
	for id := range cachedIDs {
		if _, ok := known[id]; ok {
			continue
		}
		if _, ok := profiles[id]; ok {
			continue
		}
		secondDegree++
		missing = append(missing, id)
	}
	t.setSecondDegree(secondDegree)

	if expandErr != nil || len(missing) == 0 {
		return actors, edges, expandErr
	}

	refreshed, refreshErr := o.refreshProfiles(ctx, client, missing, t, logger)
	actors = append(actors, refreshed...)
	return actors, edges, refreshErr
}

// persist bulk-upserts the given records and updates the tally.
func (o *Orchestrator) persist(ctx context.Context, actors []model.Actor, edges []model.Edge, t *tally) error {
	if len(actors) > 0 {
		if err := o.store.BulkUpsertActors(ctx, actors); err != nil {
			return err
		}
		t.addActorsUpserted(len(actors))
	}
	if len(edges) > 0 {
		if err := o.store.BulkUpsertEdges(ctx, edges); err != nil {
			return err
		}
		t.addEdgesUpserted(len(edges))
	}
	return nil
}

// markRestricted returns the stored record, or a stub when none exists,
// flagged restricted and stamped with the current time so the flag survives
// the store's monotonic upsert and future crawls skip the actor.
func (o *Orchestrator) markRestricted(base *model.Actor, actorID string) model.Actor {
	a := model.Actor{ActorID: actorID}
	if base != nil {
		a = *base
	}
	a.IsRestricted = true
	a.LastRefreshedAt = o.now()
	return a
}

// markUnreachable is the not-found counterpart of markRestricted.
func (o *Orchestrator) markUnreachable(base *model.Actor, actorID string) model.Actor {
	a := model.Actor{ActorID: actorID}
	if base != nil {
		a = *base
	}
	a.Unreachable = true
	a.LastRefreshedAt = o.now()
	return a
}

// summarize snapshots the tally into a CrawlSummary.
func (o *Orchestrator) summarize(req model.CrawlRequest, state model.CrawlState, t *tally, start time.Time) model.CrawlSummary {
	s := t.snapshot()
	s.RequestID = req.ID.String()
	s.SeedActorID = req.SeedActorID
	s.State = state
	s.StateName = state.String()
	s.StartedAt = start
	s.Duration = o.now().Sub(start)
	return s
}

// tally accumulates crawl counters. All methods are safe for concurrent use
// by the worker pools.
type tally struct {
	mu sync.Mutex
	s  model.CrawlSummary
}

func newTally() *tally {
	return &tally{}
}

func (t *tally) addPerformed(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.FetchesPerformed += n
}

func (t *tally) addSkippedFresh(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.SkippedFresh += n
}

func (t *tally) addRestricted(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.SkippedRestricted += n
}

func (t *tally) addNotFound(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.NotFound += n
}

func (t *tally) addActorsUpserted(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.ActorsUpserted += n
}

func (t *tally) addEdgesUpserted(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.EdgesUpserted += n
}

func (t *tally) setFirstDegree(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.FirstDegreeCount = n
}

func (t *tally) setSecondDegree(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.SecondDegreeCount = n
}

func (t *tally) snapshot() model.CrawlSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.s
}
