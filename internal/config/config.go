package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "BUNKER"

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 用于生成二维码中的加入链接，为空时使用请求的 Host
	PublicURL   string `mapstructure:"public_url"`
	FrontendDir string `mapstructure:"frontend_dir"`

	Timers  TimerConfig   `mapstructure:"timers"`
	Oracle  OracleConfig  `mapstructure:"oracle"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Room    RoomConfig    `mapstructure:"room"`
	WS      WSConfig      `mapstructure:"ws"`
}

// 倒计时单位为秒，其余为毫秒
type TimerConfig struct {
	Speech           int `mapstructure:"speech"`
	Discussion       int `mapstructure:"discussion"`
	VotePrep         int `mapstructure:"vote_prep"`
	Justification    int `mapstructure:"justification"`
	Vote             int `mapstructure:"vote"`
	TallyPauseMS     int `mapstructure:"tally_pause_ms"`
	ExileAnimationMS int `mapstructure:"exile_animation_ms"`
	TickMS           int `mapstructure:"tick_ms"`
}

type OracleConfig struct {
	Provider       string `mapstructure:"provider"`
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RoomConfig struct {
	MaxPlayers  int `mapstructure:"max_players"`
	MinPlayers  int `mapstructure:"min_players"`
	IdleMinutes int `mapstructure:"idle_minutes"`
	MaxRooms    int `mapstructure:"max_rooms"`
}

// 每个连接的入站限流，单位为包/秒
type WSConfig struct {
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

func (c OracleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c RoomConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleMinutes) * time.Minute
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (c TimerConfig) TallyPause() time.Duration {
	return millis(c.TallyPauseMS)
}

func (c TimerConfig) ExileAnimation() time.Duration {
	return millis(c.ExileAnimationMS)
}

func (c TimerConfig) Tick() time.Duration {
	return millis(c.TickMS)
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	config, err := Load(".")
	if err != nil {
		panic(fmt.Errorf("加载配置失败: %w", err))
	}

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("public_url", "")
	v.SetDefault("frontend_dir", "./bunker-fe")

	v.SetDefault("timers.speech", 60)
	v.SetDefault("timers.discussion", 120)
	v.SetDefault("timers.vote_prep", 30)
	v.SetDefault("timers.justification", 30)
	v.SetDefault("timers.vote", 30)
	v.SetDefault("timers.tally_pause_ms", 2000)
	v.SetDefault("timers.exile_animation_ms", 3500)
	v.SetDefault("timers.tick_ms", 1000)

	v.SetDefault("oracle.provider", "openai")
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.base_url", "")
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.timeout_seconds", 60)

	v.SetDefault("archive.enabled", true)
	v.SetDefault("archive.path", "bunker_archive.db")

	v.SetDefault("room.max_players", 16)
	v.SetDefault("room.min_players", 2)
	v.SetDefault("room.idle_minutes", 60)
	v.SetDefault("room.max_rooms", 512)

	v.SetDefault("ws.rate_limit", 10.0)
	v.SetDefault("ws.rate_burst", 20)
}

// Load 依次读取 .env、app_config.json 和 BUNKER_ 前缀的环境变量，后者优先。
// 两个文件都是可选的。
func Load(dir string) (*AppConfig, error) {
	if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()

	v.SetConfigName("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *AppConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("端口无效: %d", c.Port)
	}

	if c.Room.MinPlayers < 2 {
		return fmt.Errorf("最少玩家数不能小于 2: %d", c.Room.MinPlayers)
	}

	if c.Room.MaxPlayers < c.Room.MinPlayers {
		return fmt.Errorf("最多玩家数 %d 小于最少玩家数 %d", c.Room.MaxPlayers, c.Room.MinPlayers)
	}

	if c.Timers.TickMS <= 0 {
		return fmt.Errorf("计时器间隔必须为正: %d", c.Timers.TickMS)
	}

	if c.WS.RateLimit <= 0 || c.WS.RateBurst < 1 {
		return fmt.Errorf("入站限速无效: rate=%v burst=%d", c.WS.RateLimit, c.WS.RateBurst)
	}

	return nil
}
