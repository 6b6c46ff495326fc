package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Board     Board     `yaml:"board"`
	Bot       Bot       `yaml:"bot"`
	Redis     Redis     `yaml:"redis"`
	WebSocket WebSocket `yaml:"websocket"`
}

type Board struct {
	DefaultSize int `yaml:"default-size" env:"BOARD_DEFAULT_SIZE" env-default:"15"`
	MinSize     int `yaml:"min-size" env:"BOARD_MIN_SIZE" env-default:"5"`
	MaxSize     int `yaml:"max-size" env:"BOARD_MAX_SIZE" env-default:"20"`
}

type Bot struct {
	MoveDelay time.Duration `yaml:"move-delay" env:"BOT_MOVE_DELAY" env-default:"500ms"`
}

type Redis struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type WebSocket struct {
	ReadLimit     int64         `yaml:"read-limit" env:"WS_READ_LIMIT" env-default:"4096"`
	SendBuffer    int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"256"`
	WriteWait     time.Duration `yaml:"write-wait" env:"WS_WRITE_WAIT" env-default:"10s"`
	PongWait      time.Duration `yaml:"pong-wait" env:"WS_PONG_WAIT" env-default:"60s"`
	PingInterval  time.Duration `yaml:"ping-interval" env:"WS_PING_INTERVAL" env-default:"54s"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"WS_SWEEP_INTERVAL" env-default:"1m"`
}

var (
	ErrInvalidBoardLimits = errors.New("invalid board size limits")
	ErrInvalidWebSocket   = errors.New("invalid websocket settings")
)

// MustLoad - load all configurations in config.yml file, or from the environment when the file is missing.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	default:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err = config.Board.Validate(); err != nil {
		return nil, err
	}

	if err = config.WebSocket.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Board) Validate() error {
	if that.MinSize < 5 || that.MinSize > that.MaxSize || that.DefaultSize < that.MinSize || that.DefaultSize > that.MaxSize {
		return fmt.Errorf("%w: min %d, max %d, default %d", ErrInvalidBoardLimits, that.MinSize, that.MaxSize, that.DefaultSize)
	}

	return nil
}

// Validate - every timing must be positive and pings must arrive before the pong deadline.
func (that *WebSocket) Validate() error {
	if that.ReadLimit <= 0 || that.SendBuffer <= 0 {
		return fmt.Errorf("%w: read limit %d, send buffer %d", ErrInvalidWebSocket, that.ReadLimit, that.SendBuffer)
	}

	if that.WriteWait <= 0 || that.PongWait <= 0 || that.PingInterval <= 0 || that.SweepInterval <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidWebSocket)
	}

	if that.PingInterval >= that.PongWait {
		return fmt.Errorf("%w: ping interval %s must be shorter than pong wait %s", ErrInvalidWebSocket, that.PingInterval, that.PongWait)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
