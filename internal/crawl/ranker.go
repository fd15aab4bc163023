package crawl

import (
	"sort"

	"github.com/sahil485/neXus/internal/model"
)

// Ranker orders first-degree actors for fan-out candidate selection. The
// actors ranked highest become the roots of second-degree expansion.
//
// Design decision: Ranking is an interface rather than a fixed formula
// because follower count is a proxy for relevance, not a ground truth.
// Alternative signals (mutual-connection density, engagement rates) can be
// swapped in without touching the orchestrator.
type Ranker interface {
	// Rank returns the actors in descending order of expansion priority.
	// Implementations must not mutate the input slice.
	Rank(actors []model.Actor) []model.Actor
}

// FollowerCountRanker ranks actors by follower count, highest first. Ties
// keep their input order so ranking is deterministic.
type FollowerCountRanker struct{}

// Rank implements Ranker.
func (FollowerCountRanker) Rank(actors []model.Actor) []model.Actor {
	ranked := make([]model.Actor, len(actors))
	copy(ranked, actors)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FollowerCount > ranked[j].FollowerCount
	})
	return ranked
}

// SelectCandidates picks the fan-out roots for second-degree expansion:
// restricted, unreachable, and low-signal actors are dropped first, the
// remainder is ranked, and at most limit actors are returned.
//
// Filtering happens before ranking so a restricted actor can never occupy
// one of the limited candidate slots.
func SelectCandidates(actors []model.Actor, ranker Ranker, limit, followerFloor int) []model.Actor {
	expandable := make([]model.Actor, 0, len(actors))
	for _, a := range actors {
		if a.Expandable(followerFloor) {
			expandable = append(expandable, a)
		}
	}

	ranked := ranker.Rank(expandable)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
