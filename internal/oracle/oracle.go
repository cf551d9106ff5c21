package oracle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bunker-be/internal/service/game"
)

const (
	PROVIDER_OPENAI = "openai"
	PROVIDER_STATIC = "static"
)

var ErrUnknownProvider = errors.New("未知的剧本生成服务")

type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// New 按配置选择剧本生成服务；没有 API Key 时退回离线剧本
func New(opts Options) (game.ScenarioOracle, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case PROVIDER_OPENAI, "":
		if strings.TrimSpace(opts.APIKey) == "" {
			return NewStatic(), nil
		}
		return NewOpenAI(opts), nil
	case PROVIDER_STATIC:
		return NewStatic(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, opts.Provider)
	}
}
