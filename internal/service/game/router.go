package game

import (
	"bunker-be/internal/transport"

	"go.uber.org/zap"
)

// handleEvent 是所有外部输入的唯一入口，房主自己的操作也经由这里
func (gm *GameMachine) handleEvent(ev transport.Event) {
	gm.touch()

	switch ev.Kind {
	case transport.EventConnect:
		zap.L().Info(
			"副本已连接，发送当前快照",
			zap.String("room_id", gm.roomID),
			zap.String("peer_id", ev.PeerID),
		)

		gm.store.SyncPeer(ev.PeerID)

	case transport.EventDisconnect:
		// 断线玩家保留在名单中，重连后继续接收快照
		zap.L().Info(
			"副本已断开",
			zap.String("room_id", gm.roomID),
			zap.String("peer_id", ev.PeerID),
		)

	case transport.EventMessage:
		gm.routePacket(ev.PeerID, ev.Packet)
	}
}

func (gm *GameMachine) routePacket(senderID string, pkt transport.Packet) {
	if payload := TryUnwrapJoin(pkt); payload != nil {
		gm.onJoin(senderID, payload.Name)
		return
	}

	if payload := TryUnwrapAction(pkt); payload != nil {
		// 只能以自己的身份提交意图
		if payload.PlayerID != senderID {
			zap.L().Warn(
				"丢弃冒用身份的意图",
				zap.String("room_id", gm.roomID),
				zap.String("sender_id", senderID),
				zap.String("player_id", payload.PlayerID),
				zap.String("kind", payload.Kind),
			)
			return
		}

		gm.onAction(*payload)
		return
	}

	if payload := TryUnwrapControl(pkt); payload != nil {
		// 在入口处拦截非房主的指令，各个处理函数不再单独检查
		if senderID != gm.hostID {
			zap.L().Debug(
				"忽略非房主发出的指令",
				zap.String("room_id", gm.roomID),
				zap.String("sender_id", senderID),
				zap.String("command", payload.Command),
			)
			return
		}

		gm.onControl(*payload)
		return
	}

	zap.L().Debug(
		"无法处理的数据包",
		zap.String("room_id", gm.roomID),
		zap.String("sender_id", senderID),
		zap.String("packet_type", pkt.Type),
	)
}

func (gm *GameMachine) onAction(action ActionPayload) {
	var handled bool

	switch action.Kind {
	case ACTION_REVEAL:
		handled = gm.apply(func(next *GameState) bool {
			return revealAttribute(next, action.PlayerID, AttributeType(action.Data))
		})
	case ACTION_USE_ACTION:
		handled = gm.apply(func(next *GameState) bool {
			return useSpecialAction(next, action.PlayerID)
		})
	case ACTION_VOTE:
		handled = gm.apply(func(next *GameState) bool {
			return castVote(next, action.PlayerID, action.Data)
		})
	case ACTION_UPDATE_NAME:
		handled = gm.apply(func(next *GameState) bool {
			return renamePlayer(next, action.PlayerID, action.Data)
		})
	}

	if !handled {
		zap.L().Debug(
			"意图未生效",
			zap.String("room_id", gm.roomID),
			zap.String("player_id", action.PlayerID),
			zap.String("kind", action.Kind),
			zap.String("data", action.Data),
		)
	}
}

func (gm *GameMachine) onControl(ctrl ControlPayload) {
	phase := gm.store.Peek().Phase

	if !phase.CanHandle(ctrl.Command) {
		zap.L().Debug(
			"当前阶段不接受该指令",
			zap.String("room_id", gm.roomID),
			zap.Stringer("phase", phase),
			zap.String("command", ctrl.Command),
		)
		return
	}

	switch ctrl.Command {
	case CMD_OPEN_ROOM:
		gm.openRoom()
	case CMD_KICK:
		gm.kickPlayer(ctrl.PlayerID)
	case CMD_START_GAME:
		gm.startGame()
	case CMD_BEGIN_ROUND:
		gm.beginRound()
	case CMD_START_SPEECH:
		gm.startPlayerSpeech()
	case CMD_NEXT_SPEAKER:
		gm.nextSpeaker()
	case CMD_END_DISCUSSION:
		gm.endDiscussion()
	case CMD_RESOLVE_VOTE:
		gm.resolveVote()
	case CMD_EXILE_COMPLETE:
		gm.completeExile()
	case CMD_TIMER_START:
		gm.apply(func(next *GameState) bool {
			startTimer(next, ctrl.Seconds)
			return true
		})
	case CMD_TIMER_STOP:
		gm.apply(func(next *GameState) bool {
			if !next.IsTimerRunning {
				return false
			}
			stopTimer(next)
			return true
		})
	}
}
