package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHub_AttachEmitsConnectAndReceivesBroadcast(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	out, key, err := hub.Attach("p1", "")
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	if key == "" {
		t.Fatalf("first attach should issue a peer key")
	}

	ev := <-hub.Events()
	if ev.Kind != EventConnect || ev.PeerID != "p1" {
		t.Fatalf("want connect event for p1, got %v %q", ev.Kind, ev.PeerID)
	}

	hub.Broadcast(MustPacket(PACKET_STATE_UPDATE, map[string]int{"round": 1}))

	pkt := <-out
	if pkt.Type != PACKET_STATE_UPDATE {
		t.Fatalf("want STATE_UPDATE, got %s", pkt.Type)
	}
}

func TestHub_DeliverKeepsPerPeerOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := hub.Deliver(ctx, "p1", MustPacket(PACKET_ACTION, i)); err != nil {
			t.Fatalf("deliver %d failed: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		ev := <-hub.Events()
		if ev.Kind != EventMessage {
			t.Fatalf("want message event, got %v", ev.Kind)
		}
		if string(ev.Packet.Payload) != string(MustPacket(PACKET_ACTION, i).Payload) {
			t.Fatalf("out of order delivery at %d: %s", i, ev.Packet.Payload)
		}
	}
}

func TestHub_StaleDetachDoesNotRemoveReconnectedPeer(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	oldOut, key, _ := hub.Attach("p1", "")
	newOut, _, err := hub.Attach("p1", key)
	if err != nil {
		t.Fatalf("reconnect with own key failed: %v", err)
	}

	if _, ok := <-oldOut; ok {
		t.Fatalf("old outbound channel should be closed after reconnect")
	}

	hub.Detach("p1", oldOut)

	if hub.PeerCount() != 1 {
		t.Fatalf("stale detach removed the live peer")
	}

	if err := hub.Send("p1", Packet{Type: PACKET_KICKED}); err != nil {
		t.Fatalf("send to reconnected peer failed: %v", err)
	}

	if pkt := <-newOut; pkt.Type != PACKET_KICKED {
		t.Fatalf("want KICKED, got %s", pkt.Type)
	}

	hub.Detach("p1", newOut)

	if err := hub.Send("p1", Packet{Type: PACKET_KICKED}); err != ErrPeerNotFound {
		t.Fatalf("want ErrPeerNotFound after detach, got %v", err)
	}
}

func TestHub_AttachRequiresMatchingKey(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	hostKey, err := hub.Register("host")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := hub.Register("host"); !errors.Is(err, ErrPeerExists) {
		t.Fatalf("want ErrPeerExists on second register, got %v", err)
	}

	hostOut, key, err := hub.Attach("host", hostKey)
	if err != nil || key != hostKey {
		t.Fatalf("host attach with its key failed: %v", err)
	}

	for _, bad := range []string{"", "guess"} {
		if _, _, err := hub.Attach("host", bad); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("attach with key %q: want ErrUnauthorized, got %v", bad, err)
		}
	}

	if _, _, err := hub.Attach("stranger", "guess"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown peer presenting a key: want ErrUnauthorized, got %v", err)
	}

	// 被拒绝的连接不能顶掉已连接的房主
	if err := hub.Send("host", Packet{Type: PACKET_STATE_UPDATE}); err != nil {
		t.Fatalf("host link should survive rejected attach: %v", err)
	}

	if pkt, ok := <-hostOut; !ok || pkt.Type != PACKET_STATE_UPDATE {
		t.Fatalf("host outbound channel was replaced")
	}
}

func TestHub_DisconnectFlushesQueuedPackets(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	out, _, _ := hub.Attach("p1", "")
	<-hub.Events()

	if err := hub.Send("p1", Packet{Type: PACKET_KICKED}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	hub.Disconnect("p1")

	if pkt, ok := <-out; !ok || pkt.Type != PACKET_KICKED {
		t.Fatalf("queued KICKED should be readable before close")
	}

	if _, ok := <-out; ok {
		t.Fatalf("outbound channel should be closed after disconnect")
	}

	if ev := <-hub.Events(); ev.Kind != EventDisconnect || ev.PeerID != "p1" {
		t.Fatalf("want disconnect event for p1, got %v %q", ev.Kind, ev.PeerID)
	}

	if hub.PeerCount() != 0 {
		t.Fatalf("peer still attached after disconnect")
	}
}

func TestHub_DeliverWaitsForRoomInsteadOfDropping(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ctx := context.Background()

	for i := 0; i < defaultEventBuffer; i++ {
		if err := hub.Deliver(ctx, "p1", Packet{Type: PACKET_ACTION}); err != nil {
			t.Fatalf("fill %d failed: %v", i, err)
		}
	}

	delivered := make(chan error, 1)
	go func() {
		delivered <- hub.Deliver(ctx, "p1", MustPacket(PACKET_ACTION, "vote"))
	}()

	select {
	case err := <-delivered:
		t.Fatalf("deliver returned before there was room: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	<-hub.Events()

	select {
	case err := <-delivered:
		if err != nil {
			t.Fatalf("deliver failed after room was made: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("deliver still blocked after room was made")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	if err := hub.Deliver(timeoutCtx, "p1", Packet{Type: PACKET_ACTION}); !errors.Is(err, ErrPeerBusy) {
		t.Fatalf("want ErrPeerBusy when ctx expires on a full buffer, got %v", err)
	}
}

func TestHub_CloseReleasesBlockedDeliver(t *testing.T) {
	hub := NewHub()

	for i := 0; i < defaultEventBuffer; i++ {
		hub.Deliver(context.Background(), "p1", Packet{Type: PACKET_ACTION})
	}

	delivered := make(chan error, 1)
	go func() {
		delivered <- hub.Deliver(context.Background(), "p1", Packet{Type: PACKET_ACTION})
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Close()

	select {
	case err := <-delivered:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("want ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("close did not release blocked deliver")
	}

	select {
	case <-hub.Done():
	default:
		t.Fatalf("Done should be closed after Close")
	}
}
