// Package replica 是非房主一侧的镜像：只接收完整快照并整体替换本地副本，从不自行推进状态。
package replica

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"bunker-be/internal/service/game"
	"bunker-be/internal/transport"
)

var ErrNotStateUpdate = errors.New("数据包不是状态快照")

type Mirror struct {
	mu      sync.RWMutex
	myID    string
	isHost  bool
	state   game.GameState
	synced  bool
	version uint64
}

func NewMirror(myID string, isHost bool) *Mirror {
	m := &Mirror{
		myID:   myID,
		isHost: isHost,
		state:  game.NewGameState(""),
	}

	m.state.MyID = myID
	m.state.IsHost = isHost

	return m
}

// Replace 用收到的快照整体替换本地副本，只把本地持有的两个字段拼回去
func (m *Mirror) Replace(snapshot game.GameState) {
	snapshot.MyID = m.myID
	snapshot.IsHost = m.isHost

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = snapshot
	m.synced = true
	m.version++
}

// ApplyPacket 解码 STATE_UPDATE 并替换本地副本
func (m *Mirror) ApplyPacket(pkt transport.Packet) error {
	if pkt.Type != transport.PACKET_STATE_UPDATE {
		return ErrNotStateUpdate
	}

	var snapshot game.GameState
	if err := json.Unmarshal(pkt.Payload, &snapshot); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	m.Replace(snapshot)

	return nil
}

func (m *Mirror) Snapshot() game.GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.Clone()
}

func (m *Mirror) Synced() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.synced
}

func (m *Mirror) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.version
}

func (m *Mirror) MyID() string {
	return m.myID
}

func (m *Mirror) IsHost() bool {
	return m.isHost
}

// Me 返回本地玩家在名单中的副本，旁观者返回 nil
func (m *Mirror) Me() *game.Player {
	snapshot := m.Snapshot()

	p := snapshot.FindPlayer(m.myID)
	if p == nil {
		return nil
	}

	me := *p

	return &me
}
