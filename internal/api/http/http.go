package http

import (
	"fmt"
	"os"

	"bunker-be/internal/api/http/websocket"
	"bunker-be/internal/state"

	"github.com/kataras/iris/v12"
)

func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	// 前端静态文件可选，单独部署前端时目录不存在
	if info, err := os.Stat(appState.Cfg.FrontendDir); err == nil && info.IsDir() {
		app.HandleDir(
			"/",
			iris.Dir(appState.Cfg.FrontendDir),
			iris.DirOptions{
				IndexName: "index.html",
				SPA:       true,
				Compress:  true,
			},
		)
	}

	api := app.Party("/api/v1")

	api.Post("/rooms/create", CreateRoom(appState))
	api.Get("/rooms/{code:string}", GetRoom(appState))
	api.Get("/rooms/{code:string}/qr", RoomQRCode(appState))

	api.Get("/games", ListGames(appState))

	api.Get("/ws/join", websocket.JoinGame(appState))

	return app
}

func RunServer(appState *state.AppState) error {
	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	return NewApp(appState).Listen(addr)
}
