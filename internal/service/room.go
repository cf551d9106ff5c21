package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"bunker-be/internal/service/dto"
	"bunker-be/internal/service/game"
	"bunker-be/internal/transport"

	"go.uber.org/zap"
)

var (
	ErrEmptyHostName = errors.New("房主名称不能为空")
	ErrRoomNotFound  = errors.New("房间不存在")
	ErrTooManyRooms  = errors.New("房间数量已达上限")
)

type RoomOptions struct {
	Machine game.MachineOptions

	// 无人操作超过该时长的房间会被回收
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	MaxRooms        int
}

type RoomService struct {
	state *roomServiceState
	opts  RoomOptions
}

type roomServiceState struct {
	mu sync.RWMutex

	// 房间码到房间的映射
	rooms map[string]*roomEntry

	cleanUpDone chan struct{}
	closeOnce   sync.Once
}

// 每个房间拥有独立的 Hub 与状态机，状态机在自己的协程中运行
type roomEntry struct {
	code    string
	machine *game.GameMachine
	hub     *transport.Hub
	cancel  context.CancelFunc
}

func NewRoomService(opts RoomOptions) *RoomService {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}

	if opts.MaxRooms <= 0 {
		opts.MaxRooms = MAX_ROOMS
	}

	state := &roomServiceState{
		rooms:       make(map[string]*roomEntry),
		cleanUpDone: make(chan struct{}),
	}

	rs := &RoomService{
		state: state,
		opts:  opts,
	}

	// 启动一个 goroutine 定期清理过期的房间
	go rs.startCleanupLoop()

	return rs
}

func (rs *RoomService) startCleanupLoop() {
	ticker := time.NewTicker(rs.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.state.cleanUpDone:
			return

		case <-ticker.C:
			rs.cleanup(time.Now())
		}
	}
}

func (rs *RoomService) cleanup(now time.Time) {
	rs.state.mu.Lock()
	defer rs.state.mu.Unlock()

	for code, room := range rs.state.rooms {
		if isRoomValid(room, now, rs.opts) {
			continue
		}

		zap.S().Infof("房间 %s 状态失效，开始清理", code)

		room.shutdown()
		delete(rs.state.rooms, code)
	}
}

func (rs *RoomService) Close() {
	rs.state.closeOnce.Do(func() {
		close(rs.state.cleanUpDone)

		rs.state.mu.Lock()
		defer rs.state.mu.Unlock()

		for code, room := range rs.state.rooms {
			room.shutdown()
			delete(rs.state.rooms, code)
		}
	})
}

// CreateRoom 分配房间码和房主 ID，启动状态机并以房主身份打开房间
func (rs *RoomService) CreateRoom(req dto.CreateRoomRequest) (dto.CreateRoomResponse, error) {
	hostName := strings.TrimSpace(req.HostName)
	if hostName == "" {
		return dto.CreateRoomResponse{}, ErrEmptyHostName
	}

	if utf8.RuneCountInString(hostName) > game.MAX_NAME_LENGTH {
		hostName = string([]rune(hostName)[:game.MAX_NAME_LENGTH])
	}

	rs.state.mu.Lock()
	defer rs.state.mu.Unlock()

	if len(rs.state.rooms) >= rs.opts.MaxRooms {
		return dto.CreateRoomResponse{}, ErrTooManyRooms
	}

	code, err := allocateRoomCode(func(code string) bool {
		_, taken := rs.state.rooms[code]
		return taken
	})
	if err != nil {
		return dto.CreateRoomResponse{}, err
	}

	hostID := game.GenID()
	hub := transport.NewHub()

	hostKey, err := hub.Register(hostID)
	if err != nil {
		return dto.CreateRoomResponse{}, err
	}

	machine := game.NewGameMachine(code, hostID, hostName, hub, rs.opts.Machine)

	ctx, cancel := context.WithCancel(context.Background())

	room := &roomEntry{
		code:    code,
		machine: machine,
		hub:     hub,
		cancel:  cancel,
	}

	rs.state.rooms[code] = room

	go machine.Run(ctx)

	// 房主的指令和其他玩家一样经由 Hub 进入状态机
	openRoom := game.WrapControl(game.ControlPayload{Command: game.CMD_OPEN_ROOM})
	if err := hub.Deliver(ctx, hostID, openRoom); err != nil {
		zap.L().Warn("打开房间失败", zap.String("room_id", code), zap.Error(err))
	}

	zap.S().Infof("房间 %s 由 %s 创建", code, hostName)

	return dto.CreateRoomResponse{
		RoomID:  code,
		HostID:  hostID,
		HostKey: hostKey,
	}, nil
}

// Hub 返回房间的传输层，websocket 连接在其上注册
func (rs *RoomService) Hub(code string) (*transport.Hub, error) {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	room, ok := rs.state.rooms[normalizeRoomCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return room.hub, nil
}

func (rs *RoomService) RoomInfo(code string) (dto.RoomInfo, error) {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	room, ok := rs.state.rooms[normalizeRoomCode(code)]
	if !ok {
		return dto.RoomInfo{}, ErrRoomNotFound
	}

	return dto.RoomInfo{
		RoomID:      room.code,
		Phase:       room.machine.Phase().String(),
		PlayerCount: room.machine.PlayerCount(),
		Peers:       room.hub.PeerCount(),
		CreatedAt:   room.machine.CreatedAt(),
	}, nil
}

func (rs *RoomService) RoomCount() int {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	return len(rs.state.rooms)
}

func (room *roomEntry) shutdown() {
	room.cancel()
	room.machine.Stop()

	if err := room.hub.Close(); err != nil {
		zap.L().Warn("关闭房间传输层失败", zap.String("room_id", room.code), zap.Error(err))
	}

	zap.S().Infof("房间 %s 协程退出", room.code)
}
