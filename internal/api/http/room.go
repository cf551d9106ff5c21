package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"bunker-be/internal/service"
	"bunker-be/internal/service/dto"
	"bunker-be/internal/state"

	"github.com/kataras/iris/v12"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const QR_CODE_SIZE = 256

func CreateRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateRoomRequest

		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "请求参数无效",
			})
			return
		}

		resp, err := appState.RoomSvc.CreateRoom(req)
		if err != nil {
			status := iris.StatusBadRequest
			if errors.Is(err, service.ErrTooManyRooms) {
				status = iris.StatusServiceUnavailable
			}

			ctx.StatusCode(status)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		resp.JoinURL = joinLink(appState, ctx, resp.RoomID)

		ctx.JSON(resp)
	}
}

func GetRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		info, err := appState.RoomSvc.RoomInfo(ctx.Params().Get("code"))
		if err != nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.JSON(info)
	}
}

// RoomQRCode 生成加入链接的二维码，同一房间的玩家扫码即可进入
func RoomQRCode(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		info, err := appState.RoomSvc.RoomInfo(ctx.Params().Get("code"))
		if err != nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		png, err := qrcode.Encode(joinLink(appState, ctx, info.RoomID), qrcode.Medium, QR_CODE_SIZE)
		if err != nil {
			zap.L().Error("生成二维码失败", zap.String("room_id", info.RoomID), zap.Error(err))
			ctx.StatusCode(iris.StatusInternalServerError)
			return
		}

		ctx.ContentType("image/png")
		ctx.Write(png)
	}
}

// joinLink 优先使用配置的公开地址，否则按请求的 Host 拼接
func joinLink(appState *state.AppState, ctx iris.Context, roomID string) string {
	base := strings.TrimRight(appState.Cfg.PublicURL, "/")

	if base == "" {
		scheme := "http"
		if ctx.Request().TLS != nil {
			scheme = "https"
		}

		base = fmt.Sprintf("%s://%s", scheme, ctx.Host())
	}

	return base + "/?room=" + url.QueryEscape(roomID)
}
