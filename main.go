package main

import (
	"bunker-be/internal/api/http"
	"bunker-be/internal/archive"
	"bunker-be/internal/config"
	"bunker-be/internal/logger"
	"bunker-be/internal/oracle"
	"bunker-be/internal/service"
	"bunker-be/internal/service/game"
	"bunker-be/internal/state"

	"go.uber.org/zap"
)

func machineOptions(cfg *config.AppConfig) game.MachineOptions {
	opts := game.DefaultMachineOptions()

	opts.Timers = game.TimerSettings{
		Speech:        cfg.Timers.Speech,
		Discussion:    cfg.Timers.Discussion,
		VotePrep:      cfg.Timers.VotePrep,
		Justification: cfg.Timers.Justification,
		Vote:          cfg.Timers.Vote,
	}
	opts.TickInterval = cfg.Timers.Tick()
	opts.TallyPause = cfg.Timers.TallyPause()
	opts.ExileAnimation = cfg.Timers.ExileAnimation()
	opts.OracleTimeout = cfg.Oracle.Timeout()
	opts.MinPlayers = cfg.Room.MinPlayers
	opts.MaxPlayers = cfg.Room.MaxPlayers

	return opts
}

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	lgr := logger.InitLogger(cfg.LogLevel)
	defer lgr.Sync()

	opts := machineOptions(cfg)

	scenarioOracle, err := oracle.New(oracle.Options{
		Provider: cfg.Oracle.Provider,
		APIKey:   cfg.Oracle.APIKey,
		BaseURL:  cfg.Oracle.BaseURL,
		Model:    cfg.Oracle.Model,
		Timeout:  cfg.Oracle.Timeout(),
	})
	if err != nil {
		zap.L().Fatal("初始化剧本生成服务失败", zap.Error(err))
	}
	opts.Oracle = scenarioOracle

	zap.L().Info("剧本生成服务就绪", zap.String("oracle", cfg.Oracle.Provider))

	var archiveStore *archive.Store
	if cfg.Archive.Enabled {
		archiveStore, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			zap.L().Fatal("打开对局归档失败", zap.String("path", cfg.Archive.Path), zap.Error(err))
		}
		defer archiveStore.Close()

		opts.Archiver = archiveStore
	}

	roomSvc := service.NewRoomService(service.RoomOptions{
		Machine:     opts,
		IdleTimeout: cfg.Room.IdleTimeout(),
		MaxRooms:    cfg.Room.MaxRooms,
	})
	defer roomSvc.Close()

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		roomSvc,
		archiveStore,
	)

	// 启动服务器
	if err := http.RunServer(appState); err != nil {
		zap.L().Error("服务器退出", zap.Error(err))
	}
}
