package game

// 副本发来的意图类型
const (
	ACTION_REVEAL      = "REVEAL"
	ACTION_VOTE        = "VOTE"
	ACTION_USE_ACTION  = "USE_ACTION"
	ACTION_UPDATE_NAME = "UPDATE_NAME"
)

// 房主指令
const (
	CMD_OPEN_ROOM      = "OPEN_ROOM"
	CMD_KICK           = "KICK"
	CMD_START_GAME     = "START_GAME"
	CMD_BEGIN_ROUND    = "BEGIN_ROUND"
	CMD_START_SPEECH   = "START_SPEECH"
	CMD_NEXT_SPEAKER   = "NEXT_SPEAKER"
	CMD_END_DISCUSSION = "END_DISCUSSION"
	CMD_RESOLVE_VOTE   = "RESOLVE_VOTE"
	CMD_EXILE_COMPLETE = "EXILE_COMPLETE"
	CMD_TIMER_START    = "TIMER_START"
	CMD_TIMER_STOP     = "TIMER_STOP"
)

type JoinPayload struct {
	Name string `json:"name"`
}

// ActionPayload 的 Data 随 Kind 变化：
// REVEAL 为属性类型，VOTE 为被投票者 ID，UPDATE_NAME 为新名字，USE_ACTION 为空
type ActionPayload struct {
	Kind     string `json:"kind"`
	PlayerID string `json:"playerId"`
	Data     string `json:"data,omitempty"`
}

type ControlPayload struct {
	Command  string `json:"command"`
	PlayerID string `json:"playerId,omitempty"`
	Seconds  int    `json:"seconds,omitempty"`
}
