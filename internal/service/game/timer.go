package game

// TimerSettings 各阶段倒计时，单位秒
type TimerSettings struct {
	Speech        int
	Discussion    int
	VotePrep      int
	Justification int
	Vote          int
}

func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		Speech:        60,
		Discussion:    120,
		VotePrep:      30,
		Justification: 30,
		Vote:          30,
	}
}

// 任何阶段切换都可以直接覆盖倒计时，旧倒计时随之失效，不需要额外的取消机制
func startTimer(gs *GameState, seconds int) {
	if seconds <= 0 {
		stopTimer(gs)
		return
	}

	gs.Timer = seconds
	gs.IsTimerRunning = true
}

func stopTimer(gs *GameState) {
	gs.IsTimerRunning = false
}

// tickTimer 每经过一个时间单位调用一次，归零时清除运行标记
func tickTimer(gs *GameState) bool {
	if !gs.IsTimerRunning {
		return false
	}

	if gs.Timer > 0 {
		gs.Timer--
	}

	if gs.Timer <= 0 {
		gs.Timer = 0
		gs.IsTimerRunning = false
	}

	return true
}
