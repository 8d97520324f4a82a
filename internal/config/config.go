package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when STOREFRONT_CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

type Config struct {
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Schedule struct {
		Timezone             string   `yaml:"timezone"`
		TickIntervalSeconds  int      `yaml:"tick_interval_seconds"`
		SlotStepMinutes      int      `yaml:"slot_step_minutes"`
		AlwaysAvailable      []string `yaml:"always_available"`
		SeedPath             string   `yaml:"seed_path"`
		WatchIntervalSeconds int      `yaml:"watch_interval_seconds"`
		HistoryRetentionDays int      `yaml:"history_retention_days"`
	} `yaml:"schedule"`

	Admin struct {
		APIKey          string `yaml:"api_key"`
		WritesPerMinute int    `yaml:"writes_per_minute"`
	} `yaml:"admin"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/storefront.db"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "storefront:config"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// TickInterval is how often category availability is re-evaluated.
func (c *Config) TickInterval() time.Duration {
	if c.Schedule.TickIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Schedule.TickIntervalSeconds) * time.Second
}

func (c *Config) SlotStep() time.Duration {
	if c.Schedule.SlotStepMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Schedule.SlotStepMinutes) * time.Minute
}

func (c *Config) WatchInterval() time.Duration {
	if c.Schedule.WatchIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Schedule.WatchIntervalSeconds) * time.Second
}

// HistoryRetention is how long superseded configuration revisions are kept.
func (c *Config) HistoryRetention() time.Duration {
	if c.Schedule.HistoryRetentionDays <= 0 {
		return 90 * 24 * time.Hour
	}
	return time.Duration(c.Schedule.HistoryRetentionDays) * 24 * time.Hour
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) BackupRetention() time.Duration {
	if c.Backup.RetentionDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
}

// AdminWritesPerMinute caps admin schedule changes across all clients.
func (c *Config) AdminWritesPerMinute() int {
	if c.Admin.WritesPerMinute <= 0 {
		return 30
	}
	return c.Admin.WritesPerMinute
}
