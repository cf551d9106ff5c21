package game

import (
	"testing"
)

func votingState(ids ...string) *GameState {
	gs := NewGameState("ROOM")
	gs.Phase = PHASE_VOTING

	for i, id := range ids {
		gs.Players = append(gs.Players, NewPlayer(id, id, i == 0))
	}

	return &gs
}

func TestCastVote_PreventsDuplicateVotes(t *testing.T) {
	gs := votingState("player1", "player2")

	if !castVote(gs, "player1", "player2") {
		t.Fatalf("first vote should succeed")
	}

	if got := gs.FindPlayer("player2").VotesReceived; got != 1 {
		t.Fatalf("vote not recorded correctly, want 1 got %d", got)
	}

	if castVote(gs, "player1", "player2") {
		t.Fatalf("duplicate vote should be rejected")
	}

	if got := gs.FindPlayer("player2").VotesReceived; got != 1 {
		t.Fatalf("duplicate vote mutated counters, want 1 got %d", got)
	}
}

func TestCastVote_RejectsExiledParticipants(t *testing.T) {
	gs := votingState("player1", "player2", "player3")
	gs.FindPlayer("player3").IsExiled = true

	if castVote(gs, "player3", "player1") {
		t.Fatalf("exiled voter should be rejected")
	}

	if castVote(gs, "player1", "player3") {
		t.Fatalf("exiled target should be rejected")
	}

	if castVote(gs, "player1", "ghost") {
		t.Fatalf("unknown target should be rejected")
	}

	gs.Phase = PHASE_GROUP_DISCUSSION
	if castVote(gs, "player1", "player2") {
		t.Fatalf("vote outside VOTING should be rejected")
	}
}

func TestGameMachine_ImpersonatedVoteIsDropped(t *testing.T) {
	gm, ids := startedGame(t, testOptions(&stubOracle{}), 3)
	reachVoting(t, gm)

	send(gm, ids[1], WrapAction(ACTION_VOTE, ids[2], ids[1]))

	gs := state(gm)
	if gs.FindPlayer(ids[1]).VotesReceived != 0 || len(gs.Voters) != 0 {
		t.Fatalf("vote submitted under another identity must be dropped")
	}

	vote(gm, ids[1], ids[2])
	vote(gm, ids[1], ids[0])

	gs = state(gm)
	if gs.FindPlayer(ids[2]).VotesReceived != 1 || gs.FindPlayer(ids[0]).VotesReceived != 0 {
		t.Fatalf("only the first own vote should count")
	}
}

func TestRevealAttribute_Toggles(t *testing.T) {
	gs := votingState("player1")
	gs.Phase = PHASE_PLAYER_SPEECH

	if !revealAttribute(gs, "player1", ATTR_HEALTH) {
		t.Fatalf("reveal should succeed")
	}

	if !gs.FindPlayer("player1").Stats[ATTR_HEALTH].IsRevealed {
		t.Fatalf("attribute should be revealed")
	}

	if !revealAttribute(gs, "player1", ATTR_HEALTH) {
		t.Fatalf("second reveal should toggle back")
	}

	if gs.FindPlayer("player1").Stats[ATTR_HEALTH].IsRevealed {
		t.Fatalf("attribute should be hidden again")
	}

	if revealAttribute(gs, "player1", AttributeType("bogus")) {
		t.Fatalf("unknown attribute type should be rejected")
	}

	gs.Phase = PHASE_SETUP
	if revealAttribute(gs, "player1", ATTR_HEALTH) {
		t.Fatalf("reveal before the first round should be rejected")
	}
}

func TestUseSpecialAction_IsOneWay(t *testing.T) {
	gs := votingState("player1")
	gs.Phase = PHASE_GROUP_DISCUSSION

	if !useSpecialAction(gs, "player1") {
		t.Fatalf("first use should succeed")
	}

	if !gs.FindPlayer("player1").Stats[ATTR_ACTION].IsRevealed {
		t.Fatalf("action card should be revealed")
	}

	if len(gs.History) != 1 {
		t.Fatalf("use should be recorded in history, got %v", gs.History)
	}

	if useSpecialAction(gs, "player1") {
		t.Fatalf("second use should be rejected")
	}
}

func TestRenamePlayer(t *testing.T) {
	gs := votingState("player1")
	gs.Phase = PHASE_SETUP

	if !renamePlayer(gs, "player1", "  新名字  ") {
		t.Fatalf("rename should succeed")
	}

	if got := gs.FindPlayer("player1").Name; got != "新名字" {
		t.Fatalf("name should be trimmed, got %q", got)
	}

	if renamePlayer(gs, "player1", "   ") {
		t.Fatalf("blank name should be rejected")
	}

	long := ""
	for i := 0; i <= MAX_NAME_LENGTH; i++ {
		long += "长"
	}

	if renamePlayer(gs, "player1", long) {
		t.Fatalf("overlong name should be rejected")
	}

	gs.Phase = PHASE_ROUND_START
	if renamePlayer(gs, "player1", "另一个") {
		t.Fatalf("rename after start should be rejected")
	}
}
