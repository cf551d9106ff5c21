package game

type Phase string

// 游戏阶段，除标注外都由房主显式操作推进：
// LOBBY → SETUP → SCENARIO_LOADING → SCENARIO_REVEAL → ROUND_START
// → PLAYER_SPEECH(循环) → GROUP_DISCUSSION → VOTE_PREP_SPEECH(循环) → VOTING → VOTE_RESULTS
// → JUSTIFICATION(循环) → VOTING(复投) 或 EXILE_ANIMATION
// → ROUND_START(下一轮) 或 ENDING_GENERATION → GAME_OVER
const (
	PHASE_LOBBY             Phase = "LOBBY"
	PHASE_SETUP             Phase = "SETUP"
	PHASE_SCENARIO_LOADING  Phase = "SCENARIO_LOADING"
	PHASE_SCENARIO_REVEAL   Phase = "SCENARIO_REVEAL"
	PHASE_ROUND_START       Phase = "ROUND_START"
	PHASE_PLAYER_SPEECH     Phase = "PLAYER_SPEECH"
	PHASE_GROUP_DISCUSSION  Phase = "GROUP_DISCUSSION"
	PHASE_VOTE_PREP_SPEECH  Phase = "VOTE_PREP_SPEECH"
	PHASE_VOTING            Phase = "VOTING"
	PHASE_VOTE_RESULTS      Phase = "VOTE_RESULTS"
	PHASE_JUSTIFICATION     Phase = "JUSTIFICATION"
	PHASE_EXILE_ANIMATION   Phase = "EXILE_ANIMATION"
	PHASE_ENDING_GENERATION Phase = "ENDING_GENERATION"
	PHASE_GAME_OVER         Phase = "GAME_OVER"
)

func (p Phase) String() string {
	return string(p)
}

func (p Phase) IsTerminal() bool {
	return p == PHASE_ENDING_GENERATION || p == PHASE_GAME_OVER
}

// AcceptsJoin 只有开局前允许新玩家入座
func (p Phase) AcceptsJoin() bool {
	return p == PHASE_LOBBY || p == PHASE_SETUP
}

// InRound 回合内的阶段才允许翻开属性卡
func (p Phase) InRound() bool {
	switch p {
	case PHASE_ROUND_START,
		PHASE_PLAYER_SPEECH,
		PHASE_GROUP_DISCUSSION,
		PHASE_VOTE_PREP_SPEECH,
		PHASE_VOTING,
		PHASE_VOTE_RESULTS,
		PHASE_JUSTIFICATION,
		PHASE_EXILE_ANIMATION:
		return true
	default:
		return false
	}
}

// 每个房主指令允许生效的阶段
var commandPhases = map[string][]Phase{
	CMD_OPEN_ROOM:      {PHASE_LOBBY},
	CMD_KICK:           {PHASE_SETUP},
	CMD_START_GAME:     {PHASE_SETUP},
	CMD_BEGIN_ROUND:    {PHASE_SCENARIO_REVEAL},
	CMD_START_SPEECH:   {PHASE_ROUND_START},
	CMD_NEXT_SPEAKER:   {PHASE_PLAYER_SPEECH, PHASE_VOTE_PREP_SPEECH, PHASE_JUSTIFICATION},
	CMD_END_DISCUSSION: {PHASE_GROUP_DISCUSSION},
	CMD_RESOLVE_VOTE:   {PHASE_VOTING},
	CMD_EXILE_COMPLETE: {PHASE_EXILE_ANIMATION},
	CMD_TIMER_START:    nil,
	CMD_TIMER_STOP:     nil,
}

// CanHandle 判断指令在当前阶段是否合法；nil 表示任意非终止阶段
func (p Phase) CanHandle(command string) bool {
	phases, ok := commandPhases[command]
	if !ok {
		return false
	}

	if phases == nil {
		return !p.IsTerminal()
	}

	for _, allowed := range phases {
		if allowed == p {
			return true
		}
	}

	return false
}
