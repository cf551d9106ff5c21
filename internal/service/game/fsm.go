package game

import (
	"context"
	"sync/atomic"
	"time"

	"bunker-be/internal/transport"

	"go.uber.org/zap"
)

type MachineOptions struct {
	Timers TimerSettings

	// 倒计时的时间单位
	TickInterval time.Duration
	// 计票后的展示停顿
	TallyPause time.Duration
	// 驱逐动画时长，到时自动结算；为 0 时只等待房主确认
	ExileAnimation time.Duration
	OracleTimeout  time.Duration

	MinPlayers int
	MaxPlayers int

	Oracle   ScenarioOracle
	Archiver Archiver
}

func DefaultMachineOptions() MachineOptions {
	return MachineOptions{
		Timers:         DefaultTimerSettings(),
		TickInterval:   time.Second,
		TallyPause:     2 * time.Second,
		ExileAnimation: 3500 * time.Millisecond,
		OracleTimeout:  60 * time.Second,
		MinPlayers:     2,
		MaxPlayers:     16,
	}
}

// 内部事件（延迟切换、外部调用结果）回到事件循环中执行，保证只有一个写者
type internalEvent func()

// GameMachine 是房主侧的权威状态机。
// 网络事件、倒计时、延迟切换和剧本生成结果全部汇入同一个事件循环顺序处理。
type GameMachine struct {
	roomID string
	hostID string

	store *Store
	tr    transport.Transport
	opts  MachineOptions

	internalCh chan internalEvent
	doneCh     chan struct{}
	stopped    atomic.Bool

	// 每次阶段变化加一，延迟事件据此判断是否已经过期
	epoch      uint64
	oracleBusy bool

	// 供其他协程读取的摘要，只在事件循环中写入
	phase        atomic.Value
	players      atomic.Int32
	lastActivity atomic.Int64
	createdAt    time.Time
}

func NewGameMachine(
	roomID string,
	hostID string,
	hostName string,
	tr transport.Transport,
	opts MachineOptions,
) *GameMachine {
	initial := NewGameState(roomID)
	initial.Players = append(initial.Players, NewPlayer(hostID, hostName, true))

	gm := &GameMachine{
		roomID:     roomID,
		hostID:     hostID,
		store:      NewStore(initial, NewFullStateReplicator(tr)),
		tr:         tr,
		opts:       opts,
		internalCh: make(chan internalEvent, 16),
		doneCh:     make(chan struct{}),
		createdAt:  time.Now(),
	}

	gm.phase.Store(initial.Phase)
	gm.players.Store(int32(len(initial.Players)))
	gm.touch()

	return gm
}

func (gm *GameMachine) RoomID() string {
	return gm.roomID
}

func (gm *GameMachine) HostID() string {
	return gm.hostID
}

// Run 进入事件循环，直到 ctx 取消、Stop 被调用或传输层关闭
func (gm *GameMachine) Run(ctx context.Context) {
	ticker := time.NewTicker(gm.opts.TickInterval)
	defer ticker.Stop()

	zap.L().Info("房间状态机启动", zap.String("room_id", gm.roomID))

	events := gm.tr.Events()

	for {
		select {
		case ev := <-events:
			gm.handleEvent(ev)

		case <-gm.tr.Done():
			zap.L().Info("传输层已关闭，结束状态机", zap.String("room_id", gm.roomID))
			return

		case fn := <-gm.internalCh:
			fn()

		case <-ticker.C:
			gm.onTick()

		case <-ctx.Done():
			zap.L().Info("上下文取消，结束状态机", zap.String("room_id", gm.roomID))
			return

		case <-gm.doneCh:
			zap.L().Info("收到退出信号，结束状态机", zap.String("room_id", gm.roomID))
			return
		}
	}
}

func (gm *GameMachine) Stop() {
	if gm.stopped.CompareAndSwap(false, true) {
		close(gm.doneCh)
	}
}

func (gm *GameMachine) Phase() Phase {
	return gm.phase.Load().(Phase)
}

func (gm *GameMachine) PlayerCount() int {
	return int(gm.players.Load())
}

func (gm *GameMachine) IsFinished() bool {
	return gm.Phase() == PHASE_GAME_OVER
}

func (gm *GameMachine) LastActivity() time.Time {
	return time.Unix(0, gm.lastActivity.Load())
}

func (gm *GameMachine) CreatedAt() time.Time {
	return gm.createdAt
}

func (gm *GameMachine) touch() {
	gm.lastActivity.Store(time.Now().UnixNano())
}

// apply 包装 Store.Apply，阶段变化时推进 epoch
func (gm *GameMachine) apply(mutate Mutation) bool {
	before := gm.store.Peek().Phase

	if !gm.store.Apply(mutate) {
		return false
	}

	gm.players.Store(int32(len(gm.store.Peek().Players)))

	after := gm.store.Peek().Phase
	if after != before {
		gm.epoch++
		gm.phase.Store(after)

		zap.L().Debug(
			"阶段切换",
			zap.String("room_id", gm.roomID),
			zap.Stringer("from", before),
			zap.Stringer("to", after),
		)
	}

	return true
}

func (gm *GameMachine) post(fn internalEvent) {
	select {
	case gm.internalCh <- fn:
	case <-gm.doneCh:
	}
}

// after 延迟把 fn 投回事件循环。fn 只在阶段未变化时执行。
func (gm *GameMachine) after(d time.Duration, fn internalEvent) {
	epoch := gm.epoch

	guarded := func() {
		if gm.epoch != epoch {
			zap.L().Debug("丢弃过期的延迟事件", zap.String("room_id", gm.roomID))
			return
		}
		fn()
	}

	if d <= 0 {
		go gm.post(guarded)
		return
	}

	time.AfterFunc(d, func() { gm.post(guarded) })
}

func (gm *GameMachine) onTick() {
	gm.apply(tickTimer)
}
