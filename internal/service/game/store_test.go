package game

import (
	"testing"
)

type recordingReplicator struct {
	broadcasts []GameState
	unicasts   map[string]GameState
}

func (r *recordingReplicator) Replicate(snapshot GameState) {
	r.broadcasts = append(r.broadcasts, snapshot)
}

func (r *recordingReplicator) ReplicateTo(peerID string, snapshot GameState) {
	if r.unicasts == nil {
		r.unicasts = make(map[string]GameState)
	}
	r.unicasts[peerID] = snapshot
}

func TestStore_ApplyBroadcastsEveryMutation(t *testing.T) {
	rec := &recordingReplicator{}
	store := NewStore(NewGameState("ROOM"), rec)

	store.Apply(func(next *GameState) bool {
		next.Phase = PHASE_SETUP
		return true
	})

	store.Apply(func(next *GameState) bool {
		next.Players = append(next.Players, NewPlayer("p1", "甲", true))
		return true
	})

	if len(rec.broadcasts) != 2 || store.Version() != 2 {
		t.Fatalf("want 2 broadcasts, got %d (version %d)", len(rec.broadcasts), store.Version())
	}

	if rec.broadcasts[0].Phase != PHASE_SETUP || len(rec.broadcasts[1].Players) != 1 {
		t.Fatalf("snapshots do not reflect mutations")
	}
}

func TestStore_RejectedMutationLeavesStateUntouched(t *testing.T) {
	rec := &recordingReplicator{}
	store := NewStore(NewGameState("ROOM"), rec)

	store.Apply(func(next *GameState) bool {
		next.Phase = PHASE_GAME_OVER
		return false
	})

	if store.Peek().Phase != PHASE_LOBBY || len(rec.broadcasts) != 0 {
		t.Fatalf("rejected mutation leaked into state")
	}
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	rec := &recordingReplicator{}
	initial := NewGameState("ROOM")
	initial.Players = append(initial.Players, NewPlayer("p1", "甲", true))
	store := NewStore(initial, rec)

	store.Apply(func(next *GameState) bool {
		next.Phase = PHASE_ROUND_START
		return true
	})

	store.Apply(func(next *GameState) bool {
		attr := next.Players[0].Stats[ATTR_BODY]
		attr.IsRevealed = true
		next.Players[0].Stats[ATTR_BODY] = attr
		next.History = append(next.History, "x")
		return true
	})

	if rec.broadcasts[0].Players[0].Stats[ATTR_BODY].IsRevealed {
		t.Fatalf("earlier snapshot was mutated through a shared map")
	}

	if len(rec.broadcasts[0].History) != 0 {
		t.Fatalf("earlier snapshot was mutated through a shared slice")
	}
}

func TestStore_SyncPeerSendsCurrentSnapshot(t *testing.T) {
	rec := &recordingReplicator{}
	store := NewStore(NewGameState("ROOM"), rec)

	store.SyncPeer("late")

	if got, ok := rec.unicasts["late"]; !ok || got.RoomID != "ROOM" {
		t.Fatalf("late peer did not receive a snapshot")
	}
}

func TestAdvanceSpeaker_UsesActiveFilter(t *testing.T) {
	gs := NewGameState("ROOM")
	gs.Phase = PHASE_PLAYER_SPEECH
	for _, id := range []string{"a", "b", "c"} {
		gs.Players = append(gs.Players, Player{ID: id})
	}
	gs.Players[1].IsExiled = true

	if CurrentSpeaker(&gs).ID != "a" {
		t.Fatalf("want a first")
	}

	if AdvanceSpeaker(&gs) || CurrentSpeaker(&gs).ID != "c" {
		t.Fatalf("exiled player must be skipped")
	}

	if !AdvanceSpeaker(&gs) {
		t.Fatalf("loop should end after the last active speaker")
	}
}
