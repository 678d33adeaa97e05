// Package config loads server configuration from YAML and environment
// variables via viper. Flags in cmd/server may override individual
// fields after loading.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type OutboxConfig struct {
	Buffer       int           `mapstructure:"buffer"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	SaveTimeout  time.Duration `mapstructure:"save_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Log      LogConfig      `mapstructure:"log"`
}

// Load reads configuration from the given file (optional) with
// DEBT_ENGINE_* environment variables taking precedence over the file
// and defaults filling the rest.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "debts.db")
	v.SetDefault("outbox.buffer", 256)
	v.SetDefault("outbox.max_attempts", 3)
	v.SetDefault("outbox.retry_backoff", 250*time.Millisecond)
	v.SetDefault("outbox.save_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("DEBT_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ListenAddr renders the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
