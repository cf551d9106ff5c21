package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"bunker-be/internal/state"
	"bunker-be/internal/transport"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// JoinGame 把一个 websocket 连接注册为房间 Hub 上的一个 peer。
// 连接只负责搬运数据包：入站包原样交给状态机，出站快照原样写回，不做任何业务判断。
func JoinGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		clientIP := ctx.RemoteAddr()
		roomCode := ctx.URLParam("room")
		peerID := strings.TrimSpace(ctx.URLParam("peer_id"))
		peerKey := ctx.URLParam("peer_key")

		if !validPeerID(peerID) {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "peer_id 无效",
			})
			return
		}

		hub, err := appState.RoomSvc.Hub(roomCode)
		if err != nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		// 升级前先校验密钥，冒用他人 peer_id 的请求在这里被拒绝，不会顶掉原连接
		outCh, issuedKey, err := hub.Attach(peerID, peerKey)
		if err != nil {
			zap.L().Warn(
				"注册连接失败",
				zap.String("client_ip", clientIP),
				zap.String("room_id", roomCode),
				zap.String("peer_id", peerID),
				zap.Error(err),
			)

			status := iris.StatusServiceUnavailable
			if errors.Is(err, transport.ErrUnauthorized) {
				status = iris.StatusForbidden
			}

			ctx.StatusCode(status)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		defer hub.Detach(peerID, outCh)

		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			return
		}

		defer conn.Close()

		conn.SetReadLimit(MAX_MESSAGE_SIZE)
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		// 写协程启动前直接写出会话包，保证它是客户端收到的第一个包
		session := transport.MustPacket(transport.PACKET_SESSION, transport.Session{
			PeerID:  peerID,
			PeerKey: issuedKey,
		})

		conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
		if err := conn.WriteJSON(session); err != nil {
			zap.L().Error(
				"发送会话包失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		zap.L().Info(
			"副本已连接",
			zap.String("client_ip", clientIP),
			zap.String("room_id", roomCode),
			zap.String("peer_id", peerID),
		)

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)

		// 写入协程，是唯一写 conn 的地方
		go writeLoop(conn, outCh, writeDoneCh, clientIP)

		reqCtx := ctx.Request().Context()

		limiter := rate.NewLimiter(
			rate.Limit(appState.Cfg.WS.RateLimit),
			appState.Cfg.WS.RateBurst,
		)

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			// 超出速率时等待而不是丢弃，读不动的连接由 TCP 反压给客户端
			if err := limiter.Wait(reqCtx); err != nil {
				zap.L().Warn(
					"等待入站限速失败，断开连接",
					zap.String("client_ip", clientIP),
					zap.String("peer_id", peerID),
					zap.Error(err),
				)
				break
			}

			var pkt transport.Packet

			if err := json.Unmarshal(msg, &pkt); err != nil {
				zap.L().Debug(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				continue
			}

			deliverCtx, cancel := context.WithTimeout(reqCtx, DELIVER_TIMEOUT)
			err = hub.Deliver(deliverCtx, peerID, pkt)
			cancel()

			if err != nil {
				// 送达失败时断开连接，客户端重连后按最新快照重新同步
				if !errors.Is(err, transport.ErrClosed) {
					zap.L().Warn(
						"发送数据包到状态机失败，断开连接",
						zap.String("client_ip", clientIP),
						zap.String("peer_id", peerID),
						zap.Error(err),
					)
				}

				break
			}
		}

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("peer_id", peerID),
		)
	}
}

func writeLoop(conn *websocket.Conn, outCh <-chan transport.Packet, doneCh <-chan struct{}, clientIP string) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	// 写失败或通道关闭时关闭连接，让读循环退出
	defer conn.Close()

	for {
		select {
		case <-doneCh:
			zap.L().Debug(
				"WebSocket写入协程退出",
				zap.String("client_ip", clientIP),
			)
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

		case pkt, ok := <-outCh:
			// 同一 peer 重连、被踢出或房间关闭时通道被关闭
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
				conn.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed"),
				)

				zap.L().Info(
					"出站通道已关闭，退出写协程",
					zap.String("client_ip", clientIP),
				)
				return
			}

			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))

			if err := conn.WriteJSON(pkt); err != nil {
				zap.L().Error(
					"发送消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}
		}
	}
}
