package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

type Config struct {
	Addr        string   `mapstructure:"addr"`
	AutoMigrate bool     `mapstructure:"auto_migrate"`
	Database    Database `mapstructure:"database"`
	Log         Log      `mapstructure:"log"`
}

type Database struct {
	URL          string `mapstructure:"url"`
	Driver       string `mapstructure:"driver"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type Log struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// env maps config keys onto the flat environment variable names.
var env = map[string]string{
	"addr":                    "ADDR",
	"auto_migrate":            "AUTO_MIGRATE",
	"database.url":            "DATABASE_URL",
	"database.driver":         "DB_DRIVER",
	"database.max_open_conns": "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns": "DB_MAX_IDLE_CONNS",
	"log.level":               "LOG_LEVEL",
	"log.encoding":            "LOG_ENCODING",
}

// Load reads .env (when present), an optional YAML file named by CONFIG_PATH
// and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("auto_migrate", true)
	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, ErrMissingDatabaseURL
	}

	return &cfg, nil
}
