package state

import (
	"bunker-be/internal/archive"
	"bunker-be/internal/config"
	"bunker-be/internal/service"
)

type AppState struct {
	Cfg     *config.AppConfig
	RoomSvc *service.RoomService
	// 未启用归档时为 nil
	Archive *archive.Store
}

func NewAppState(
	cfg *config.AppConfig,
	roomSvc *service.RoomService,
	archiveStore *archive.Store,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		RoomSvc: roomSvc,
		Archive: archiveStore,
	}
}
