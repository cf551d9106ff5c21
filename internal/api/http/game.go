package http

import (
	"bunker-be/internal/service/dto"
	"bunker-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func ListGames(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if appState.Archive == nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": "未启用对局归档",
			})
			return
		}

		records, err := appState.Archive.List(ctx.Request().Context(), ctx.URLParamIntDefault("limit", 0))
		if err != nil {
			zap.L().Error("查询归档失败", zap.Error(err))
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(iris.Map{
				"error": "查询归档失败",
			})
			return
		}

		resp := dto.ListGamesResponse{
			Games: make([]dto.FinishedGame, 0, len(records)),
		}

		for _, r := range records {
			resp.Games = append(resp.Games, dto.FinishedGame{
				ID:          r.ID,
				RoomID:      r.RoomID,
				Disaster:    r.Disaster,
				Capacity:    r.Capacity,
				Rounds:      r.Rounds,
				PlayerCount: r.PlayerCount,
				Survivors:   r.Survivors,
				Exiled:      r.Exiled,
				Ending:      r.Ending,
				FinishedAt:  r.FinishedAt,
			})
		}

		ctx.JSON(resp)
	}
}
