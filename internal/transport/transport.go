package transport

import (
	"encoding/json"
	"errors"
)

// 数据包类型
const (
	PACKET_JOIN         = "JOIN"
	PACKET_ACTION       = "ACTION"
	PACKET_CONTROL      = "CONTROL"
	PACKET_STATE_UPDATE = "STATE_UPDATE"
	PACKET_KICKED       = "KICKED"
	// 连接建立后服务端写出的第一个包，携带该连接的 peer 密钥
	PACKET_SESSION = "SESSION"
)

type EventKind int

const (
	EventConnect EventKind = iota
	EventDisconnect
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Packet 是链路上传输的逻辑包，Payload 的结构由 Type 决定
type Packet struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event 是传输层交给房间事件循环的唯一输入形式
type Event struct {
	Kind   EventKind
	PeerID string
	Packet Packet
}

var (
	ErrPeerNotFound = errors.New("peer not attached")
	ErrPeerBusy     = errors.New("peer outbound buffer full")
	ErrClosed       = errors.New("transport closed")
	ErrUnauthorized = errors.New("peer key mismatch")
	ErrPeerExists   = errors.New("peer already registered")
)

// Session 是 PACKET_SESSION 的负载。PeerKey 只发给连接本身，重连时原样带回。
type Session struct {
	PeerID  string `json:"peer_id"`
	PeerKey string `json:"peer_key"`
}

// Transport 是房主与各副本之间的点对点通道集合。
// 实现需保证单条链路上的有序投递，事件统一从 Events 通道流出。
type Transport interface {
	Events() <-chan Event
	Send(peerID string, pkt Packet) error
	Broadcast(pkt Packet)
	// Disconnect 主动断开一个 peer，已排队的包会先写出
	Disconnect(peerID string)
	Done() <-chan struct{}
	Close() error
}

func NewPacket(packetType string, payload any) (Packet, error) {
	if payload == nil {
		return Packet{Type: packetType}, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Packet{}, err
	}

	return Packet{Type: packetType, Payload: data}, nil
}

func MustPacket(packetType string, payload any) Packet {
	pkt, err := NewPacket(packetType, payload)
	if err != nil {
		panic("Failed to marshal packet: " + err.Error())
	}

	return pkt
}
