package game

// 三个发言循环：主发言、投票前发言、平票辩护
type speechLoop struct {
	phase Phase
	// 循环结束后进入的阶段
	next Phase
}

var speechLoops = map[Phase]speechLoop{
	PHASE_PLAYER_SPEECH:    {phase: PHASE_PLAYER_SPEECH, next: PHASE_GROUP_DISCUSSION},
	PHASE_VOTE_PREP_SPEECH: {phase: PHASE_VOTE_PREP_SPEECH, next: PHASE_VOTING},
	PHASE_JUSTIFICATION:    {phase: PHASE_JUSTIFICATION, next: PHASE_VOTING},
}

// speakerRoster 每次都从当前状态重新计算，绝不缓存。
// 辩护循环按候选人顺序发言，其余循环按存活玩家的稳定顺序发言。
func speakerRoster(gs *GameState) []string {
	if gs.Phase == PHASE_JUSTIFICATION {
		return gs.CandidatesForExile
	}

	active := gs.ActivePlayers()
	roster := make([]string, 0, len(active))
	for _, p := range active {
		roster = append(roster, p.ID)
	}

	return roster
}

// CurrentSpeaker 当前发言者，不在发言循环中或下标越界时返回 nil
func CurrentSpeaker(gs *GameState) *Player {
	if _, ok := speechLoops[gs.Phase]; !ok {
		return nil
	}

	roster := speakerRoster(gs)
	if gs.CurrentPlayerIndex < 0 || gs.CurrentPlayerIndex >= len(roster) {
		return nil
	}

	return gs.FindPlayer(roster[gs.CurrentPlayerIndex])
}

// AdvanceSpeaker 移动到下一位发言者。
// 返回 true 表示循环已结束，调用方负责进入下一阶段。
// 方向标记不影响迭代顺序。
func AdvanceSpeaker(gs *GameState) (loopDone bool) {
	roster := speakerRoster(gs)

	if gs.CurrentPlayerIndex >= len(roster)-1 {
		return true
	}

	gs.CurrentPlayerIndex++

	return false
}

func directionForRound(round int) string {
	if round%2 != 0 {
		return DIRECTION_CW
	}

	return DIRECTION_CCW
}
