package game

import (
	"math"
	"testing"
)

func playersWithVotes(votes map[string]int, order ...string) []Player {
	players := make([]Player, 0, len(order))
	for _, id := range order {
		players = append(players, Player{ID: id, Name: id, VotesReceived: votes[id]})
	}

	return players
}

func TestCalculateCapacity(t *testing.T) {
	for n := 0; n <= 20; n++ {
		if got := CalculateCapacity(n); got != n/2 {
			t.Fatalf("capacity(%d): want %d got %d", n, n/2, got)
		}
	}

	if got := CalculateCapacity(7); got != 3 {
		t.Fatalf("capacity(7): want 3 got %d", got)
	}
}

func TestResolveVotes_TieWithHighShareStillJustifies(t *testing.T) {
	players := playersWithVotes(
		map[string]int{"A": 3, "B": 3, "C": 1},
		"A", "B", "C", "D", "E", "F", "G",
	)

	result := ResolveVotes(players, 0)

	if len(result.Candidates) != 2 || result.Candidates[0] != "A" || result.Candidates[1] != "B" {
		t.Fatalf("want candidates [A B], got %v", result.Candidates)
	}

	if math.Abs(result.Percentage-3.0/7.0) > 1e-9 {
		t.Fatalf("want percentage 3/7, got %f", result.Percentage)
	}

	if result.Decision != DECISION_JUSTIFY {
		t.Fatalf("tie must route through justification, got %s", result.Decision)
	}
}

func TestResolveVotes_TieAboveThresholdDoesNotShortCircuit(t *testing.T) {
	// 两名候选人合计占比很高，但多数判定只对唯一候选人生效
	players := playersWithVotes(map[string]int{"A": 3, "B": 3}, "A", "B", "C")

	result := ResolveVotes(players, 0)

	if result.Decision != DECISION_JUSTIFY {
		t.Fatalf("want justification, got %s", result.Decision)
	}
}

func TestResolveVotes_SingleLeaderWithMajorityExilesImmediately(t *testing.T) {
	players := playersWithVotes(
		map[string]int{"A": 5, "B": 1, "C": 1},
		"A", "B", "C", "D", "E", "F", "G",
	)

	result := ResolveVotes(players, 0)

	if len(result.Candidates) != 1 || result.Candidates[0] != "A" {
		t.Fatalf("want single candidate A, got %v", result.Candidates)
	}

	if !result.IsAbsoluteMajority {
		t.Fatalf("5/7 should be an absolute majority, got %f", result.Percentage)
	}

	if result.Decision != DECISION_EXILE_SINGLE {
		t.Fatalf("want immediate exile, got %s", result.Decision)
	}
}

func TestResolveVotes_SingleLeaderWithoutMajority(t *testing.T) {
	players := playersWithVotes(map[string]int{"A": 3, "B": 2, "C": 2}, "A", "B", "C")

	if got := ResolveVotes(players, 0).Decision; got != DECISION_JUSTIFY {
		t.Fatalf("first ballot without majority must justify, got %s", got)
	}

	if got := ResolveVotes(players, 1).Decision; got != DECISION_EXILE_ALL {
		t.Fatalf("revote without majority must exile the leader, got %s", got)
	}
}

func TestResolveVotes_RevoteTieExilesEveryCandidate(t *testing.T) {
	players := playersWithVotes(map[string]int{"A": 2, "B": 2, "C": 1}, "A", "B", "C", "D", "E")

	result := ResolveVotes(players, 1)

	if result.Decision != DECISION_EXILE_ALL {
		t.Fatalf("revote tie must exile all candidates, got %s", result.Decision)
	}

	if len(result.Candidates) != 2 {
		t.Fatalf("want 2 candidates, got %v", result.Candidates)
	}
}

func TestResolveVotes_IgnoresExiledPlayers(t *testing.T) {
	players := playersWithVotes(map[string]int{"A": 4, "B": 1}, "A", "B", "C")
	players[0].IsExiled = true

	result := ResolveVotes(players, 0)

	if result.TotalVotes != 1 || result.MaxVotes != 1 {
		t.Fatalf("exiled votes counted: total=%d max=%d", result.TotalVotes, result.MaxVotes)
	}

	if len(result.Candidates) != 1 || result.Candidates[0] != "B" {
		t.Fatalf("want candidate B, got %v", result.Candidates)
	}
}

func TestResolveVotes_NoVotesMakesEveryoneACandidate(t *testing.T) {
	players := playersWithVotes(nil, "A", "B", "C")

	result := ResolveVotes(players, 0)

	if result.Percentage != 0 {
		t.Fatalf("want percentage 0 with no votes, got %f", result.Percentage)
	}

	if len(result.Candidates) != 3 || result.Decision != DECISION_JUSTIFY {
		t.Fatalf("want 3 candidates in justification, got %v %s", result.Candidates, result.Decision)
	}
}
