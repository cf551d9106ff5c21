package transport

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultEventBuffer = 256
	defaultPeerBuffer  = 64
)

// Hub 是内存中的 Transport 实现。
// WebSocket 层为每条连接调用 Attach，把读到的包通过 Deliver 投递进来；
// 房间事件循环只面对 Events 通道。
//
// peer ID 会随快照公开，真正的连接凭据是 Hub 为每个 peer 签发的密钥。
// 一个 peer ID 第一次连接时签发密钥，之后只有持有该密钥的连接才能再次使用这个 ID。
type Hub struct {
	mu     sync.RWMutex
	peers  map[string]chan Packet
	keys   map[string]string
	events chan Event
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		peers:  make(map[string]chan Packet),
		keys:   make(map[string]string),
		events: make(chan Event, defaultEventBuffer),
		done:   make(chan struct{}),
	}
}

func (h *Hub) Events() <-chan Event {
	return h.events
}

// Done 在 Close 之后关闭
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func newPeerKey() string {
	return uuid.NewString()
}

// Register 为尚未连接过的 peerID 预先签发密钥，房主在建房时通过它拿到凭据
func (h *Hub) Register(peerID string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", ErrClosed
	}

	if _, ok := h.keys[peerID]; ok {
		return "", fmt.Errorf("%w: %s", ErrPeerExists, peerID)
	}

	key := newPeerKey()
	h.keys[peerID] = key

	return key, nil
}

// Attach 注册一条到 peerID 的出站链路，返回该链路的出站通道和该 peer 的密钥。
// 首次出现的 peerID 不能携带密钥，由 Hub 签发新密钥；已知的 peerID 必须出示匹配的密钥。
// 同一 peerID 重复 Attach 视为重连：旧通道被关闭，旧写协程随之退出。
func (h *Hub) Attach(peerID, key string) (<-chan Packet, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, "", ErrClosed
	}

	known, ok := h.keys[peerID]
	switch {
	case ok && subtle.ConstantTimeCompare([]byte(known), []byte(key)) != 1:
		zap.L().Warn("peer 密钥不匹配，拒绝连接", zap.String("peer_id", peerID))
		return nil, "", ErrUnauthorized

	case !ok && key != "":
		zap.L().Warn("未知 peer 携带了密钥，拒绝连接", zap.String("peer_id", peerID))
		return nil, "", ErrUnauthorized

	case !ok:
		known = newPeerKey()
		h.keys[peerID] = known
	}

	if old, ok := h.peers[peerID]; ok {
		close(old)
		zap.L().Debug("peer 重新连接，关闭旧的出站通道", zap.String("peer_id", peerID))
	}

	ch := make(chan Packet, defaultPeerBuffer)
	h.peers[peerID] = ch

	h.emitLocked(Event{Kind: EventConnect, PeerID: peerID})

	return ch, known, nil
}

// Detach 仅在 out 仍是该 peer 的当前通道时才注销，避免旧连接注销掉新连接
func (h *Hub) Detach(peerID string, out <-chan Packet) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	ch, ok := h.peers[peerID]
	if !ok || (out != nil && (<-chan Packet)(ch) != out) {
		return
	}

	h.removeLocked(peerID, ch)
}

// Disconnect 由服务端主动断开 peer。已排队的包仍会被写出，之后写协程关闭连接。
func (h *Hub) Disconnect(peerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	if ch, ok := h.peers[peerID]; ok {
		h.removeLocked(peerID, ch)
	}
}

func (h *Hub) removeLocked(peerID string, ch chan Packet) {
	close(ch)
	delete(h.peers, peerID)

	h.emitLocked(Event{Kind: EventDisconnect, PeerID: peerID})
}

// Deliver 把 peerID 发来的包送入事件通道。
// 事件通道已满时阻塞等待，直到送达、ctx 结束或 Hub 关闭。
func (h *Hub) Deliver(ctx context.Context, peerID string, pkt Packet) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}

	select {
	case h.events <- Event{Kind: EventMessage, PeerID: peerID, Packet: pkt}:
		return nil

	case <-h.done:
		return ErrClosed

	case <-ctx.Done():
		zap.L().Warn("事件通道持续拥塞，入站包未能送达",
			zap.String("peer_id", peerID),
			zap.String("packet_type", pkt.Type),
		)
		return fmt.Errorf("%w: %w", ErrPeerBusy, ctx.Err())
	}
}

func (h *Hub) Send(peerID string, pkt Packet) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ch, ok := h.peers[peerID]
	if !ok {
		return ErrPeerNotFound
	}

	select {
	case ch <- pkt:
		return nil
	default:
		zap.L().Warn("发送单播包失败：出站通道已满", zap.String("peer_id", peerID))
		return ErrPeerBusy
	}
}

func (h *Hub) Broadcast(pkt Packet) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for peerID, ch := range h.peers {
		select {
		case ch <- pkt:
		default:
			zap.L().Warn("发送广播包失败：出站通道已满", zap.String("peer_id", peerID))
		}
	}
}

func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.peers)
}

// Close 关闭所有出站通道并关闭 Done。事件通道不关闭，阻塞中的 Deliver 经由 Done 返回。
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	h.closed = true

	for peerID, ch := range h.peers {
		close(ch)
		delete(h.peers, peerID)
	}

	return nil
}

func (h *Hub) emitLocked(ev Event) {
	select {
	case h.events <- ev:
	default:
		zap.L().Warn("事件通道已满，丢弃连接事件",
			zap.String("peer_id", ev.PeerID),
			zap.Stringer("kind", ev.Kind),
		)
	}
}
