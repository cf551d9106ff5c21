package websocket

import (
	"strings"
	"testing"
)

func TestValidPeerID(t *testing.T) {
	valid := []string{"0190f7a2-3c4d-7e8f-9a0b-1c2d3e4f5a6b", "host_1", "A"}
	for _, id := range valid {
		if !validPeerID(id) {
			t.Fatalf("%q should be valid", id)
		}
	}

	invalid := []string{"", "has space", "玩家", "a/b", strings.Repeat("a", MAX_PEER_ID_LEN+1)}
	for _, id := range invalid {
		if validPeerID(id) {
			t.Fatalf("%q should be invalid", id)
		}
	}
}
