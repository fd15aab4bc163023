package crawl

import (
	"testing"

	"github.com/sahil485/neXus/internal/model"
)

func actorWithFollowers(id string, followers int) model.Actor {
	return model.Actor{ActorID: id, FollowerCount: followers}
}

// TestFollowerCountRanker tests descending order and input preservation.
func TestFollowerCountRanker(t *testing.T) {
	t.Parallel()

	input := []model.Actor{
		actorWithFollowers("low", 10),
		actorWithFollowers("high", 5000),
		actorWithFollowers("mid", 20),
	}

	ranked := FollowerCountRanker{}.Rank(input)

	want := []string{"high", "mid", "low"}
	for i, id := range want {
		if ranked[i].ActorID != id {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].ActorID, id)
		}
	}

	if input[0].ActorID != "low" {
		t.Error("Rank() mutated the input slice")
	}
}

// TestSelectCandidates tests filtering, ranking, and the fan-out cap.
func TestSelectCandidates(t *testing.T) {
	t.Parallel()

	t.Run("top K by follower count", func(t *testing.T) {
		t.Parallel()

		actors := []model.Actor{
			actorWithFollowers("a", 10),
			actorWithFollowers("b", 5000),
			actorWithFollowers("c", 20),
		}

		got := SelectCandidates(actors, FollowerCountRanker{}, 2, 0)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].ActorID != "b" || got[1].ActorID != "c" {
			t.Errorf("candidates = [%s %s], want [b c]", got[0].ActorID, got[1].ActorID)
		}
	})

	t.Run("cap holds for large input", func(t *testing.T) {
		t.Parallel()

		actors := make([]model.Actor, 500)
		for i := range actors {
			actors[i] = actorWithFollowers(string(rune('a'+i%26))+"-actor", 100+i)
		}

		got := SelectCandidates(actors, FollowerCountRanker{}, 100, 0)
		if len(got) != 100 {
			t.Errorf("len = %d, want 100 regardless of input size", len(got))
		}
	})

	t.Run("follower floor drops low-signal actors", func(t *testing.T) {
		t.Parallel()

		actors := []model.Actor{
			actorWithFollowers("big", 500),
			actorWithFollowers("small", 5),
		}

		got := SelectCandidates(actors, FollowerCountRanker{}, 10, 50)
		if len(got) != 1 || got[0].ActorID != "big" {
			t.Errorf("candidates = %+v, want only big", got)
		}
	})

	t.Run("restricted and unreachable actors never occupy slots", func(t *testing.T) {
		t.Parallel()

		restricted := actorWithFollowers("restricted", 9000)
		restricted.IsRestricted = true
		unreachable := actorWithFollowers("gone", 8000)
		unreachable.Unreachable = true

		actors := []model.Actor{
			restricted,
			unreachable,
			actorWithFollowers("ok", 100),
		}

		got := SelectCandidates(actors, FollowerCountRanker{}, 2, 0)
		if len(got) != 1 || got[0].ActorID != "ok" {
			t.Errorf("candidates = %+v, want only ok", got)
		}
	})
}
