package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

type Config struct {
	ImagePath    string `envconfig:"IMAGE" default:"/var/lib/arenafs/volume.img"`
	NumBlocks    uint32 `envconfig:"BLOCKS" default:"1024"`
	HTTPAddr     string `envconfig:"HTTP" default:"0.0.0.0:8080"`
	AuthToken    string `envconfig:"TOKEN" default:"admin"`
	EncryptKey   string `envconfig:"KEY" default:""`
	EncryptImage bool   `envconfig:"ENCRYPT" default:"false"`
	LogLevelName string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("arenafs", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) LogLevel() LogLevel {
	return ParseLogLevel(c.LogLevelName)
}

func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
