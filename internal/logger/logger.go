package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func parseLevel(logLevel string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// InitLogger 替换全局日志器，返回值用于退出前 Sync
func InitLogger(logLevel string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()

	cfg.Level.SetLevel(parseLevel(logLevel))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	// 开发配置默认在 Warn 级别打印堆栈，对局中的警告大多是预期内的
	cfg.DisableStacktrace = true

	lgr, err := cfg.Build(zap.Fields(zap.String("service", "bunker")))
	if err != nil {
		panic(fmt.Errorf("构建日志器失败: %w", err))
	}

	zap.ReplaceGlobals(lgr)

	return lgr
}
