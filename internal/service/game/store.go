package game

import (
	"bunker-be/internal/transport"

	"go.uber.org/zap"
)

// Replicator 负责把快照送到所有副本。
// 默认实现每次广播完整快照，将来可以替换为增量同步而不影响阶段与投票逻辑。
type Replicator interface {
	Replicate(snapshot GameState)
	ReplicateTo(peerID string, snapshot GameState)
}

type fullStateReplicator struct {
	tr transport.Transport
}

func NewFullStateReplicator(tr transport.Transport) Replicator {
	return &fullStateReplicator{tr: tr}
}

func (r *fullStateReplicator) Replicate(snapshot GameState) {
	r.tr.Broadcast(WrapStateUpdate(snapshot))
}

func (r *fullStateReplicator) ReplicateTo(peerID string, snapshot GameState) {
	if err := r.tr.Send(peerID, WrapStateUpdate(snapshot)); err != nil {
		zap.L().Warn(
			"发送单播快照失败",
			zap.String("peer_id", peerID),
			zap.Error(err),
		)
	}
}

// Mutation 在快照副本上修改状态，返回 false 表示放弃本次修改
type Mutation func(next *GameState) bool

// Store 是房间唯一的可写状态。
// 所有调用都来自同一个事件循环，因此不需要加锁。
type Store struct {
	state      GameState
	replicator Replicator
	version    uint64
}

func NewStore(initial GameState, replicator Replicator) *Store {
	return &Store{
		state:      initial,
		replicator: replicator,
	}
}

// Apply 在当前状态的完整副本上执行 mutate，成功后替换当前状态并立即广播
func (s *Store) Apply(mutate Mutation) bool {
	next := s.state.Clone()

	if !mutate(&next) {
		return false
	}

	s.state = next
	s.version++

	if s.replicator != nil {
		s.replicator.Replicate(s.state.Clone())
	}

	return true
}

// Snapshot 返回当前状态的深拷贝，调用方修改它不会影响 Store
func (s *Store) Snapshot() GameState {
	return s.state.Clone()
}

// Peek 只读访问，避免热路径上的深拷贝；调用方不得修改返回值
func (s *Store) Peek() *GameState {
	return &s.state
}

func (s *Store) Version() uint64 {
	return s.version
}

func (s *Store) SyncPeer(peerID string) {
	if s.replicator != nil {
		s.replicator.ReplicateTo(peerID, s.state.Clone())
	}
}
