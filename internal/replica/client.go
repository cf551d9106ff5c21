package replica

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"bunker-be/internal/service/game"
	"bunker-be/internal/transport"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	WRITE_TIMEOUT = 10 * time.Second
	PONG_TIMEOUT  = 45 * time.Second
)

var (
	ErrKicked           = errors.New("已被房主移出房间")
	ErrNoSession        = errors.New("服务端未返回会话")
	ErrUnexpectedPacket = errors.New("首个数据包不是会话包")
)

type DialOptions struct {
	// 服务端根地址，如 ws://192.168.1.10:8080
	ServerURL string
	RoomCode  string
	PeerID    string
	// 重连或房主首次连接时携带的密钥，新玩家留空由服务端签发
	PeerKey string
	Name    string
	IsHost  bool
}

// Client 通过 websocket 连接房间，把收到的快照写入 Mirror
type Client struct {
	conn   *websocket.Conn
	mirror *Mirror

	peerKey string

	writeMu sync.Mutex

	updates chan game.GameState
}

func JoinURL(serverURL, roomCode, peerID, peerKey string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	u.Path = "/api/v1/ws/join"

	q := u.Query()
	q.Set("room", roomCode)
	q.Set("peer_id", peerID)
	if peerKey != "" {
		q.Set("peer_key", peerKey)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Dial 建立连接并发送 JOIN；房主重连同样走这里
func Dial(ctx context.Context, opts DialOptions) (*Client, error) {
	if opts.PeerID == "" {
		opts.PeerID = game.GenID()
	}

	endpoint, err := JoinURL(opts.ServerURL, opts.RoomCode, opts.PeerID, opts.PeerKey)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial room %s: %w", opts.RoomCode, err)
	}

	session, err := readSession(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	c := &Client{
		conn:    conn,
		peerKey: session.PeerKey,
		mirror:  NewMirror(opts.PeerID, opts.IsHost),
		updates: make(chan game.GameState, 8),
	}

	if err := c.send(game.WrapJoin(opts.Name)); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return c, nil
}

// readSession 读取服务端写出的第一个包，里面是本连接的密钥
func readSession(conn *websocket.Conn) (transport.Session, error) {
	conn.SetReadDeadline(time.Now().Add(WRITE_TIMEOUT))
	defer conn.SetReadDeadline(time.Time{})

	var pkt transport.Packet
	if err := conn.ReadJSON(&pkt); err != nil {
		return transport.Session{}, fmt.Errorf("%w: %w", ErrNoSession, err)
	}

	if pkt.Type != transport.PACKET_SESSION {
		return transport.Session{}, fmt.Errorf("%w: %s", ErrUnexpectedPacket, pkt.Type)
	}

	var session transport.Session
	if err := json.Unmarshal(pkt.Payload, &session); err != nil || session.PeerKey == "" {
		return transport.Session{}, ErrNoSession
	}

	return session, nil
}

// PeerKey 重连时需要带上它，否则服务端不会再接受这个 peer ID
func (c *Client) PeerKey() string {
	return c.peerKey
}

func (c *Client) Mirror() *Mirror {
	return c.mirror
}

// Updates 每收到一个快照推送一次，消费者跟不上时只保留最新的
func (c *Client) Updates() <-chan game.GameState {
	return c.updates
}

func (c *Client) send(pkt transport.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))

	if err := c.conn.WriteJSON(pkt); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}

	return nil
}

func (c *Client) SendAction(kind, data string) error {
	return c.send(game.WrapAction(kind, c.mirror.MyID(), data))
}

func (c *Client) SendControl(ctrl game.ControlPayload) error {
	return c.send(game.WrapControl(ctrl))
}

// Run 读取服务端推送直到连接关闭或 ctx 取消
func (c *Client) Run(ctx context.Context) error {
	defer close(c.updates)

	c.conn.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	c.conn.SetPingHandler(func(data string) error {
		c.conn.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))

		c.writeMu.Lock()
		defer c.writeMu.Unlock()

		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(WRITE_TIMEOUT))
	})

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.Close()
	})
	defer stop()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}

			return fmt.Errorf("read packet: %w", err)
		}

		var pkt transport.Packet
		if err := json.Unmarshal(msg, &pkt); err != nil {
			zap.L().Warn("无法解析服务端数据包", zap.Error(err))
			continue
		}

		switch pkt.Type {
		case transport.PACKET_STATE_UPDATE:
			if err := c.mirror.ApplyPacket(pkt); err != nil {
				zap.L().Warn("应用快照失败", zap.Error(err))
				continue
			}

			c.publish(c.mirror.Snapshot())

		case transport.PACKET_KICKED:
			return ErrKicked

		default:
			zap.L().Debug("忽略未知数据包", zap.String("packet_type", pkt.Type))
		}
	}
}

func (c *Client) publish(snapshot game.GameState) {
	for {
		select {
		case c.updates <- snapshot:
			return
		default:
		}

		// 丢弃最旧的一个，快照总是完整的
		select {
		case <-c.updates:
		default:
		}
	}
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(WRITE_TIMEOUT),
	)
	c.writeMu.Unlock()

	return c.conn.Close()
}
