// Package config loads the service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	configName = "notebook"
	envPrefix  = "NOTEBOOK"
)

var ErrUnknownDriver = errors.New("unknown database driver")

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CSVConfig struct {
	MaxTableRows int `mapstructure:"max_table_rows"`
}

type Config struct {
	HTTPPort            string      `mapstructure:"http_port"`
	DB                  DBConfig    `mapstructure:"db"`
	Redis               RedisConfig `mapstructure:"redis"`
	Compression         string      `mapstructure:"compression"`
	CacheSyncSchedule   string      `mapstructure:"cache_sync_schedule"`
	BackupCleanSchedule string      `mapstructure:"backup_clean_schedule"`
	SessionIdleTimeout  string      `mapstructure:"session_idle_timeout"`
	LogLevel            string      `mapstructure:"log_level"`
	CSV                 CSVConfig   `mapstructure:"csv"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "4020")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", filepath.Join(".notebook", "notebook.db"))
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("compression", "gzip")
	v.SetDefault("cache_sync_schedule", "@every 5s")
	v.SetDefault("backup_clean_schedule", "@every 10m")
	v.SetDefault("session_idle_timeout", "30m")
	v.SetDefault("log_level", "info")
	v.SetDefault("csv.max_table_rows", 100)
}

// New builds a viper instance reading notebook.yaml from the working
// directory or ~/.config/notebook and NOTEBOOK_* environment variables.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", configName))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the configuration held by v. A missing config file is not an
// error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		logrus.Infof("using config file: %s", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("unknown log level %q", cfg.LogLevel)
	}

	return cfg, nil
}

// LoadConfig loads the configuration from the default locations.
func LoadConfig() *Config {
	cfg, err := Load(New())
	if err != nil {
		logrus.Fatalf("error loading config: %v", err)
	}
	return cfg
}

// OpenDb opens the configured database.
func OpenDb(cfg *Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch strings.ToLower(cfg.DB.Driver) {
	case "", "sqlite":
		if dir := filepath.Dir(cfg.DB.DSN); dir != "" {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return gorm.Open(sqlite.Open(cfg.DB.DSN), gcfg)
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DB.DSN), gcfg)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.DB.Driver)
}

// GetDb opens the configured database and exits when it cannot.
func GetDb(cfg *Config) *gorm.DB {
	db, err := OpenDb(cfg)
	if err != nil {
		logrus.Fatalf("error opening database: %v", err)
	}
	return db
}
