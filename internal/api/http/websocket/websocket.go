package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 局域网聚会场景，暂时允许所有来源
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

const (
	// 心跳间隔，单位秒
	HEARTBEAT_INTERVAL = 30 * time.Second
	// 心跳超时时间，单位秒
	HEARTBEAT_TIMEOUT = 45 * time.Second
	WRITE_TIMEOUT     = 10 * time.Second
	// 状态机持续拥塞超过该时长时断开连接，由客户端重连后重新同步
	DELIVER_TIMEOUT = 5 * time.Second

	// 完整快照的大小随玩家数增长，16 人时约 20KB
	MAX_MESSAGE_SIZE = 64 * 1024
	MAX_PEER_ID_LEN  = 64
)

var heartbeatHandler = func(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}

// validPeerID 副本自己生成 ID（UUID），这里只限制字符集和长度
func validPeerID(id string) bool {
	if id == "" || len(id) > MAX_PEER_ID_LEN {
		return false
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_':
		default:
			return false
		}
	}

	return true
}
