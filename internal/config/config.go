package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/bookit-dev/bookit/internal/logger"
)

// Config is the top-level TOML structure.
//
//	[server]
//	listen = ":8080"
//	dsn = "bookit.db"          # empty/"memory", a sqlite path, or postgres://...
//
//	[log]
//	level = "info"
//	color = true
//	dir = "logs"               # rotating files for captured server output
//
//	[itest]
//	server_command = "bookit serve"
//	server_env = ["BOOKIT_LISTEN=:18080"]
//	ready_marker = "Listening on"
//	ready_timeout = "10s"
//	health_url = "http://127.0.0.1:18080/health"
//	poll_interval = "1s"
//	poll_timeout = "30s"
//	test_command = "go test ./... -run Integration"
//	grace = "5s"
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	ITest  ITestConfig  `mapstructure:"itest"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Color      bool   `mapstructure:"color"`
	Dir        string `mapstructure:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// FileConfig translates the log section into the supervisor's writer config.
func (l LogConfig) FileConfig() logger.Config {
	return logger.Config{
		Dir:        l.Dir,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}

type ITestConfig struct {
	ServerCommand  string        `mapstructure:"server_command"`
	ServerEnv      []string      `mapstructure:"server_env"`
	WorkDir        string        `mapstructure:"work_dir"`
	ReadyMarker    string        `mapstructure:"ready_marker"`
	ReadyTimeout   time.Duration `mapstructure:"ready_timeout"`
	HealthURL      string        `mapstructure:"health_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	TestCommand    string        `mapstructure:"test_command"`
	TestEnv        []string      `mapstructure:"test_env"`
	Grace          time.Duration `mapstructure:"grace"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a TOML config file and applies defaults for unset fields.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.ITest.ReadyMarker == "" {
		c.ITest.ReadyMarker = "Listening on"
	}
	if c.ITest.ReadyTimeout <= 0 {
		c.ITest.ReadyTimeout = 10 * time.Second
	}
	if c.ITest.PollInterval <= 0 {
		c.ITest.PollInterval = time.Second
	}
	if c.ITest.PollTimeout <= 0 {
		c.ITest.PollTimeout = 30 * time.Second
	}
	if c.ITest.AttemptTimeout <= 0 {
		c.ITest.AttemptTimeout = 2 * time.Second
	}
	if c.ITest.Grace <= 0 {
		c.ITest.Grace = 5 * time.Second
	}
}

// Validate checks the fields required for an integration-test run.
func (c *Config) Validate() error {
	if c.ITest.ServerCommand == "" {
		return fmt.Errorf("itest.server_command is required")
	}
	if c.ITest.TestCommand == "" {
		return fmt.Errorf("itest.test_command is required")
	}
	return nil
}
