package game

import (
	"encoding/json"

	"bunker-be/internal/transport"

	"go.uber.org/zap"
)

func TryUnwrapJoin(pkt transport.Packet) *JoinPayload {
	if pkt.Type != transport.PACKET_JOIN {
		return nil
	}

	var payload JoinPayload

	if err := json.Unmarshal(pkt.Payload, &payload); err != nil {
		zap.L().Error(
			"Failed to unwrap JoinPayload",
			zap.Error(err),
			zap.ByteString("payload", pkt.Payload),
		)
		return nil
	}

	return &payload
}

func TryUnwrapAction(pkt transport.Packet) *ActionPayload {
	if pkt.Type != transport.PACKET_ACTION {
		return nil
	}

	var payload ActionPayload

	if err := json.Unmarshal(pkt.Payload, &payload); err != nil {
		zap.L().Error(
			"Failed to unwrap ActionPayload",
			zap.Error(err),
			zap.ByteString("payload", pkt.Payload),
		)
		return nil
	}

	return &payload
}

func TryUnwrapControl(pkt transport.Packet) *ControlPayload {
	if pkt.Type != transport.PACKET_CONTROL {
		return nil
	}

	var payload ControlPayload

	if err := json.Unmarshal(pkt.Payload, &payload); err != nil {
		zap.L().Error(
			"Failed to unwrap ControlPayload",
			zap.Error(err),
			zap.ByteString("payload", pkt.Payload),
		)
		return nil
	}

	return &payload
}

func WrapStateUpdate(snapshot GameState) transport.Packet {
	return transport.MustPacket(transport.PACKET_STATE_UPDATE, snapshot)
}

func WrapAction(kind, playerID, data string) transport.Packet {
	return transport.MustPacket(transport.PACKET_ACTION, ActionPayload{
		Kind:     kind,
		PlayerID: playerID,
		Data:     data,
	})
}

func WrapControl(payload ControlPayload) transport.Packet {
	return transport.MustPacket(transport.PACKET_CONTROL, payload)
}

func WrapJoin(name string) transport.Packet {
	return transport.MustPacket(transport.PACKET_JOIN, JoinPayload{Name: name})
}
