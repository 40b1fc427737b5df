// Package config loads bondmetrics settings from defaults, an optional config
// file, a .env file and BONDMETRICS_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"benritz/bondmetrics/internal/logging"
	"benritz/bondmetrics/internal/report"
)

const EnvPrefix = "BONDMETRICS"

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Collect CollectConfig `mapstructure:"collect"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"` // text, table, json
	Color  bool   `mapstructure:"color"`
}

type AWSConfig struct {
	Profile string `mapstructure:"profile"`
}

type CollectConfig struct {
	Destination string `mapstructure:"destination"`
}

var (
	ErrInvalidFormat = fmt.Errorf("output format must be text, table or json")
)

func setDefaults(v *viper.Viper) {
	def := logging.DefaultLogConfig()

	v.SetDefault("log.level", def.Level)
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", def.File)
	v.SetDefault("log.file_path", def.FilePath)
	v.SetDefault("log.max_size", def.MaxSize)
	v.SetDefault("log.max_backups", def.MaxBackups)
	v.SetDefault("log.max_age", def.MaxAge)
	v.SetDefault("output.format", "text")
	v.SetDefault("output.color", true)
	v.SetDefault("aws.profile", "default")
	v.SetDefault("collect.destination", "")
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}
	return nil
}

// Logging converts the log section into a logging.LogConfig.
func (c *Config) Logging() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Log.Level,
		Console:    true,
		JSON:       c.Log.JSON,
		File:       c.Log.File,
		FilePath:   c.Log.FilePath,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	}
}
