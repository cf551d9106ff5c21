package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"bunker-be/internal/transport"

	"go.uber.org/zap"
)

var errNoOracle = errors.New("未配置剧本生成服务")

func (gm *GameMachine) onJoin(peerID, name string) {
	name = strings.TrimSpace(name)

	if gs := gm.store.Peek(); gs.FindPlayer(peerID) != nil {
		// 同一 ID 再次加入视为重连，连接时已经补发过快照
		zap.L().Info(
			"玩家重连",
			zap.String("room_id", gm.roomID),
			zap.String("player_id", peerID),
		)
		return
	}

	added := gm.apply(func(next *GameState) bool {
		if !next.Phase.AcceptsJoin() {
			return false
		}

		if name == "" || len(next.Players) >= gm.opts.MaxPlayers {
			return false
		}

		if len([]rune(name)) > MAX_NAME_LENGTH {
			name = string([]rune(name)[:MAX_NAME_LENGTH])
		}

		next.Players = append(next.Players, NewPlayer(peerID, name, false))

		return true
	})

	if added {
		zap.L().Info(
			"玩家加入房间",
			zap.String("room_id", gm.roomID),
			zap.String("player_id", peerID),
			zap.String("player_name", name),
		)
		return
	}

	// 开局后或满员时加入的连接只作为旁观者接收快照
	zap.L().Info(
		"玩家以旁观者身份连接",
		zap.String("room_id", gm.roomID),
		zap.String("peer_id", peerID),
		zap.String("player_name", name),
	)
}

func (gm *GameMachine) openRoom() {
	gm.apply(func(next *GameState) bool {
		next.Phase = PHASE_SETUP
		return true
	})
}

func (gm *GameMachine) kickPlayer(playerID string) {
	kicked := gm.apply(func(next *GameState) bool {
		for i, p := range next.Players {
			if p.ID == playerID && !p.IsHost {
				next.Players = append(next.Players[:i], next.Players[i+1:]...)
				return true
			}
		}

		return false
	})

	if !kicked {
		return
	}

	if err := gm.tr.Send(playerID, transport.Packet{Type: transport.PACKET_KICKED}); err != nil {
		zap.L().Debug("通知被踢出的玩家失败", zap.String("player_id", playerID), zap.Error(err))
	}

	// KICKED 先写出，随后关闭连接，被踢玩家不再收到快照
	gm.tr.Disconnect(playerID)

	zap.L().Info("房主踢出玩家", zap.String("room_id", gm.roomID), zap.String("player_id", playerID))
}

func (gm *GameMachine) startGame() {
	if gm.oracleBusy {
		zap.L().Warn("剧本生成进行中，忽略重复的开始请求", zap.String("room_id", gm.roomID))
		return
	}

	gs := gm.store.Peek()
	if len(gs.Players) < gm.opts.MinPlayers {
		zap.L().Debug(
			"玩家人数不足，无法开始游戏",
			zap.String("room_id", gm.roomID),
			zap.Int("players", len(gs.Players)),
		)
		return
	}

	// 容量只在开局时按初始人数计算一次
	capacity := CalculateCapacity(len(gs.Players))

	gm.apply(func(next *GameState) bool {
		next.Phase = PHASE_SCENARIO_LOADING
		stopTimer(next)
		return true
	})

	gm.oracleBusy = true
	epoch := gm.epoch

	go func() {
		scenario, err := gm.generateScenario()
		gm.post(func() {
			gm.onScenarioReady(epoch, scenario, err, capacity)
		})
	}()
}

func (gm *GameMachine) generateScenario() (Scenario, error) {
	if gm.opts.Oracle == nil {
		return Scenario{}, errNoOracle
	}

	ctx, cancel := gm.oracleContext()
	defer cancel()

	return gm.opts.Oracle.GenerateScenario(ctx)
}

func (gm *GameMachine) oracleContext() (context.Context, context.CancelFunc) {
	if gm.opts.OracleTimeout <= 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), gm.opts.OracleTimeout)
}

func (gm *GameMachine) onScenarioReady(epoch uint64, scenario Scenario, err error, capacity int) {
	gm.oracleBusy = false

	if err != nil {
		zap.L().Warn(
			"剧本生成失败，使用备用剧本",
			zap.String("room_id", gm.roomID),
			zap.Error(err),
		)

		scenario = FallbackScenario()
	}

	if gm.epoch != epoch {
		zap.L().Warn("剧本返回时阶段已变化，丢弃结果", zap.String("room_id", gm.roomID))
		return
	}

	// 容量从不信任外部返回值
	scenario.Capacity = capacity

	gm.apply(func(next *GameState) bool {
		next.Phase = PHASE_SCENARIO_REVEAL
		next.Round = 1
		next.TurnDirection = DIRECTION_CW
		next.CurrentPlayerIndex = 0
		next.Bunker = &scenario
		next.History = []string{"末日开始了。"}
		next.Survivors = make([]Player, 0)
		next.EndingStory = nil
		next.Timer = 0
		next.IsTimerRunning = false
		next.VotingRound = 0
		next.CandidatesForExile = make([]string, 0)
		next.ExiledPlayerID = nil
		next.resetVotes()
		return true
	})
}

func enterRoundStart(gs *GameState) {
	gs.Phase = PHASE_ROUND_START
	gs.TurnDirection = directionForRound(gs.Round)
	gs.CurrentPlayerIndex = 0
	gs.Timer = 0
	gs.IsTimerRunning = false
	gs.CandidatesForExile = gs.CandidatesForExile[:0]
}

func (gm *GameMachine) beginRound() {
	gm.apply(func(next *GameState) bool {
		enterRoundStart(next)
		return true
	})
}

func (gm *GameMachine) startPlayerSpeech() {
	gm.apply(func(next *GameState) bool {
		next.Phase = PHASE_PLAYER_SPEECH
		next.CurrentPlayerIndex = 0
		startTimer(next, gm.opts.Timers.Speech)
		return true
	})
}

// nextSpeaker 按当前所在的发言循环推进，循环结束时进入对应的下一阶段
func (gm *GameMachine) nextSpeaker() {
	gm.apply(func(next *GameState) bool {
		loop, ok := speechLoops[next.Phase]
		if !ok {
			return false
		}

		if !AdvanceSpeaker(next) {
			startTimer(next, gm.speechSeconds(loop.phase))
			return true
		}

		switch loop.phase {
		case PHASE_PLAYER_SPEECH:
			next.Phase = PHASE_GROUP_DISCUSSION
			startTimer(next, gm.opts.Timers.Discussion)
		case PHASE_VOTE_PREP_SPEECH:
			gm.enterVoting(next)
		case PHASE_JUSTIFICATION:
			// 辩护结束，强制复投
			next.VotingRound = 1
			gm.enterVoting(next)
		}

		return true
	})
}

func (gm *GameMachine) speechSeconds(phase Phase) int {
	switch phase {
	case PHASE_PLAYER_SPEECH:
		return gm.opts.Timers.Speech
	case PHASE_VOTE_PREP_SPEECH:
		return gm.opts.Timers.VotePrep
	case PHASE_JUSTIFICATION:
		return gm.opts.Timers.Justification
	default:
		return 0
	}
}

func (gm *GameMachine) endDiscussion() {
	gm.apply(func(next *GameState) bool {
		next.Phase = PHASE_VOTE_PREP_SPEECH
		next.CurrentPlayerIndex = 0
		startTimer(next, gm.opts.Timers.VotePrep)
		return true
	})
}

// enterVoting 每次开票（包括复投）都清零票数
func (gm *GameMachine) enterVoting(gs *GameState) {
	gs.Phase = PHASE_VOTING
	gs.resetVotes()
	gs.CandidatesForExile = gs.CandidatesForExile[:0]
	startTimer(gs, gm.opts.Timers.Vote)
}

func (gm *GameMachine) resolveVote() {
	result := ResolveVotes(gm.store.Peek().Players, gm.store.Peek().VotingRound)

	zap.L().Info(
		"计票完成",
		zap.String("room_id", gm.roomID),
		zap.Strings("candidates", result.Candidates),
		zap.Float64("percentage", result.Percentage),
		zap.String("decision", string(result.Decision)),
	)

	gm.apply(func(next *GameState) bool {
		next.Phase = PHASE_VOTE_RESULTS
		stopTimer(next)
		next.CandidatesForExile = append(next.CandidatesForExile[:0], result.Candidates...)
		return true
	})

	// 停顿仅用于展示，到时在事件循环中执行判定
	gm.after(gm.opts.TallyPause, gm.applyVoteDecision)
}

func (gm *GameMachine) applyVoteDecision() {
	gs := gm.store.Peek()
	if gs.Phase != PHASE_VOTE_RESULTS {
		return
	}

	result := ResolveVotes(gs.Players, gs.VotingRound)

	switch result.Decision {
	case DECISION_EXILE_SINGLE:
		gm.exilePlayers(result.Candidates)

	case DECISION_JUSTIFY:
		gm.apply(func(next *GameState) bool {
			next.Phase = PHASE_JUSTIFICATION
			next.CandidatesForExile = append(next.CandidatesForExile[:0], result.Candidates...)
			next.CurrentPlayerIndex = 0
			next.resetVotes()
			startTimer(next, gm.opts.Timers.Justification)
			return true
		})

	case DECISION_EXILE_ALL:
		gm.exilePlayers(result.Candidates)
	}
}

// exilePlayers 单人驱逐与多人同时驱逐共用同一个完成事件
func (gm *GameMachine) exilePlayers(ids []string) {
	gm.apply(func(next *GameState) bool {
		next.ExiledPlayerID = nil

		for _, id := range ids {
			player := next.FindPlayer(id)
			if player == nil || player.IsExiled {
				continue
			}

			player.IsExiled = true

			if next.ExiledPlayerID == nil {
				exiledID := player.ID
				next.ExiledPlayerID = &exiledID
			}

			next.History = append(next.History, "玩家 "+player.Name+" 被驱逐出地堡。")
		}

		next.Phase = PHASE_EXILE_ANIMATION
		next.CandidatesForExile = next.CandidatesForExile[:0]
		next.resetVotes()
		stopTimer(next)

		return true
	})

	zap.L().Info("驱逐玩家", zap.String("room_id", gm.roomID), zap.Strings("player_ids", ids))

	if gm.opts.ExileAnimation > 0 {
		gm.after(gm.opts.ExileAnimation, gm.completeExile)
	}
}

// completeExile 每次驱逐完成后检查存活人数与地堡容量
func (gm *GameMachine) completeExile() {
	gs := gm.store.Peek()
	if gs.Phase != PHASE_EXILE_ANIMATION {
		return
	}

	if gs.CountActive() <= gs.capacity() {
		gm.finishGame()
		return
	}

	gm.apply(func(next *GameState) bool {
		next.Round++
		next.VotingRound = 0
		next.ExiledPlayerID = nil
		enterRoundStart(next)
		return true
	})
}

func (gm *GameMachine) finishGame() {
	if gm.oracleBusy {
		return
	}

	gm.apply(func(next *GameState) bool {
		next.Phase = PHASE_ENDING_GENERATION
		stopTimer(next)
		return true
	})

	snapshot := gm.store.Snapshot()
	survivors := make([]Player, 0, len(snapshot.Players))
	for _, p := range snapshot.Players {
		if !p.IsExiled {
			survivors = append(survivors, p)
		}
	}

	var scenario Scenario
	if snapshot.Bunker != nil {
		scenario = *snapshot.Bunker
	}

	gm.oracleBusy = true
	epoch := gm.epoch

	go func() {
		story, err := gm.narrateEnding(survivors, scenario)
		gm.post(func() {
			gm.onEndingReady(epoch, survivors, story, err)
		})
	}()
}

func (gm *GameMachine) narrateEnding(survivors []Player, scenario Scenario) (string, error) {
	if gm.opts.Oracle == nil {
		return "", errNoOracle
	}

	ctx, cancel := gm.oracleContext()
	defer cancel()

	return gm.opts.Oracle.NarrateEnding(ctx, survivors, scenario)
}

func (gm *GameMachine) onEndingReady(epoch uint64, survivors []Player, story string, err error) {
	gm.oracleBusy = false

	if err != nil || strings.TrimSpace(story) == "" {
		zap.L().Warn(
			"结局生成失败，使用备用结局",
			zap.String("room_id", gm.roomID),
			zap.Error(err),
		)

		story = FALLBACK_ENDING
	}

	if gm.epoch != epoch {
		return
	}

	gm.apply(func(next *GameState) bool {
		next.Phase = PHASE_GAME_OVER
		next.Survivors = survivors
		next.EndingStory = &story
		return true
	})

	zap.L().Info(
		"游戏结束",
		zap.String("room_id", gm.roomID),
		zap.Int("survivors", len(survivors)),
	)

	gm.archive(gm.store.Snapshot())
}

func (gm *GameMachine) archive(final GameState) {
	if gm.opts.Archiver == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := gm.opts.Archiver.ArchiveGame(ctx, final); err != nil {
			zap.L().Error(
				"归档对局失败",
				zap.String("room_id", final.RoomID),
				zap.Error(err),
			)
		}
	}()
}
