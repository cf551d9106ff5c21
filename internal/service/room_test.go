package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"bunker-be/internal/service/dto"
	"bunker-be/internal/service/game"
	"bunker-be/internal/transport"
)

func newTestService(t *testing.T, idle time.Duration) *RoomService {
	t.Helper()

	rs := NewRoomService(RoomOptions{
		Machine:         game.DefaultMachineOptions(),
		IdleTimeout:     idle,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rs.Close)

	return rs
}

func TestCreateRoom_RequiresHostName(t *testing.T) {
	rs := newTestService(t, time.Hour)

	if _, err := rs.CreateRoom(dto.CreateRoomRequest{HostName: "   "}); !errors.Is(err, ErrEmptyHostName) {
		t.Fatalf("want ErrEmptyHostName, got %v", err)
	}
}

func TestCreateRoom_OpensRoomAsHost(t *testing.T) {
	rs := newTestService(t, time.Hour)

	resp, err := rs.CreateRoom(dto.CreateRoomRequest{HostName: "房主"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	if len(resp.RoomID) != ROOM_CODE_LENGTH {
		t.Fatalf("unexpected room code %q", resp.RoomID)
	}

	for _, r := range resp.RoomID {
		if !strings.ContainsRune(ROOM_CODE_ALPHABET, r) {
			t.Fatalf("room code %q contains ambiguous rune %q", resp.RoomID, r)
		}
	}

	if resp.HostID == "" || resp.HostKey == "" {
		t.Fatalf("host id and key must be returned: %+v", resp)
	}

	rs.state.mu.RLock()
	machine := rs.state.rooms[resp.RoomID].machine
	rs.state.mu.RUnlock()

	if machine.HostID() != resp.HostID {
		t.Fatalf("machine host %q differs from returned host %q", machine.HostID(), resp.HostID)
	}

	hub, err := rs.Hub(strings.ToLower(resp.RoomID))
	if err != nil {
		t.Fatalf("room lookup should be case-insensitive: %v", err)
	}

	if _, _, err := hub.Attach(resp.HostID, ""); !errors.Is(err, transport.ErrUnauthorized) {
		t.Fatalf("host id without its key must be refused, got %v", err)
	}

	if _, _, err := hub.Attach(resp.HostID, resp.HostKey); err != nil {
		t.Fatalf("host attach with key: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		info, err := rs.RoomInfo(resp.RoomID)
		if err != nil {
			t.Fatalf("room info: %v", err)
		}

		if info.Phase == string(game.PHASE_SETUP) {
			if info.PlayerCount != 1 {
				t.Fatalf("want host as the only player, got %d", info.PlayerCount)
			}
			break
		}

		if time.Now().After(deadline) {
			t.Fatalf("room never left LOBBY, phase=%s", info.Phase)
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func TestCleanup_RemovesIdleRooms(t *testing.T) {
	rs := newTestService(t, time.Minute)

	resp, err := rs.CreateRoom(dto.CreateRoomRequest{HostName: "房主"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	rs.cleanup(time.Now())
	if rs.RoomCount() != 1 {
		t.Fatalf("fresh room must survive cleanup")
	}

	rs.cleanup(time.Now().Add(2 * time.Minute))

	if _, err := rs.Hub(resp.RoomID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("idle room should be removed, got %v", err)
	}
}

func TestCreateRoom_RespectsRoomLimit(t *testing.T) {
	rs := NewRoomService(RoomOptions{
		Machine:         game.DefaultMachineOptions(),
		CleanupInterval: time.Hour,
		MaxRooms:        1,
	})
	t.Cleanup(rs.Close)

	if _, err := rs.CreateRoom(dto.CreateRoomRequest{HostName: "甲"}); err != nil {
		t.Fatalf("first room: %v", err)
	}

	if _, err := rs.CreateRoom(dto.CreateRoomRequest{HostName: "乙"}); !errors.Is(err, ErrTooManyRooms) {
		t.Fatalf("want ErrTooManyRooms, got %v", err)
	}
}

func TestAllocateRoomCode_GivesUpWhenExhausted(t *testing.T) {
	if _, err := allocateRoomCode(func(string) bool { return true }); err == nil {
		t.Fatalf("allocation should fail when every code is taken")
	}
}
