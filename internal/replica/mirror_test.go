package replica

import (
	"encoding/json"
	"testing"

	"bunker-be/internal/service/game"
	"bunker-be/internal/transport"
)

func hostSnapshot() game.GameState {
	gs := game.NewGameState("ABCD")
	gs.Phase = game.PHASE_VOTING
	gs.Players = []game.Player{
		game.NewPlayer("host", "房主", true),
		game.NewPlayer("me", "我", false),
	}

	// 房主本地持有的字段，绝不能泄漏给副本
	gs.MyID = "host"
	gs.IsHost = true

	return gs
}

func TestSnapshotNeverCarriesLocalFields(t *testing.T) {
	data, err := json.Marshal(hostSnapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"MyID", "myId", "IsHost", "isHost"} {
		if _, ok := raw[key]; ok {
			t.Fatalf("snapshot leaked local field %q", key)
		}
	}
}

func TestMirror_ReplaceSplicesLocalFields(t *testing.T) {
	m := NewMirror("me", false)

	pkt := game.WrapStateUpdate(hostSnapshot())
	if err := m.ApplyPacket(pkt); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := m.Snapshot()

	if got.MyID != "me" || got.IsHost {
		t.Fatalf("local fields overwritten: MyID=%q IsHost=%v", got.MyID, got.IsHost)
	}

	if got.Phase != game.PHASE_VOTING || len(got.Players) != 2 || got.RoomID != "ABCD" {
		t.Fatalf("snapshot not replaced wholesale: %+v", got)
	}

	if !m.Synced() || m.Version() != 1 {
		t.Fatalf("want synced version 1, got %v %d", m.Synced(), m.Version())
	}

	if me := m.Me(); me == nil || me.Name != "我" {
		t.Fatalf("want own player, got %+v", me)
	}
}

func TestMirror_ReplaceDropsStaleFields(t *testing.T) {
	m := NewMirror("me", false)

	first := hostSnapshot()
	story := "旧结局"
	first.EndingStory = &story
	first.History = []string{"末日开始了。"}
	m.Replace(first)

	second := game.NewGameState("ABCD")
	m.Replace(second)

	got := m.Snapshot()
	if got.EndingStory != nil || len(got.History) != 0 || len(got.Players) != 0 {
		t.Fatalf("replace must not merge with the previous copy: %+v", got)
	}
}

func TestMirror_RejectsOtherPackets(t *testing.T) {
	m := NewMirror("me", false)

	if err := m.ApplyPacket(game.WrapJoin("x")); err != ErrNotStateUpdate {
		t.Fatalf("want ErrNotStateUpdate, got %v", err)
	}

	bad := transport.Packet{Type: transport.PACKET_STATE_UPDATE, Payload: json.RawMessage(`{"players":"nope"}`)}
	if err := m.ApplyPacket(bad); err == nil {
		t.Fatalf("malformed snapshot should fail")
	}

	if m.Synced() {
		t.Fatalf("failed packets must not mark the mirror synced")
	}
}

func TestJoinURL(t *testing.T) {
	got, err := JoinURL("http://127.0.0.1:8080", "ABCD", "peer-1", "")
	if err != nil {
		t.Fatalf("join url: %v", err)
	}

	want := "ws://127.0.0.1:8080/api/v1/ws/join?peer_id=peer-1&room=ABCD"
	if got != want {
		t.Fatalf("want %s, got %s", want, got)
	}

	got, err = JoinURL("https://bunker.local", "ABCD", "peer-1", "k1")
	if err != nil {
		t.Fatalf("join url with key: %v", err)
	}

	want = "wss://bunker.local/api/v1/ws/join?peer_id=peer-1&peer_key=k1&room=ABCD"
	if got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}
