// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Bot delivery modes
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// Config holds the docxmark configuration
type Config struct {
	Bot     BotConfig     `mapstructure:"bot"`
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Storage StorageConfig `mapstructure:"storage"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Log     LogConfig     `mapstructure:"log"`
}

// BotConfig holds Telegram bot settings
type BotConfig struct {
	Token       string `mapstructure:"token"`
	AppURL      string `mapstructure:"app_url"` // public base URL, e.g. https://yourapp.onrender.com
	Mode        string `mapstructure:"mode"`
	WebhookPath string `mapstructure:"webhook_path"`
	SecretToken string `mapstructure:"secret_token"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// QueueConfig holds conversion job queue settings
type QueueConfig struct {
	Key     string `mapstructure:"key"`
	Workers int    `mapstructure:"workers"`
}

// StorageConfig holds the history database location
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// WatchConfig holds watch-folder settings
type WatchConfig struct {
	Paths     []string      `mapstructure:"paths"`
	OutputDir string        `mapstructure:"output_dir"`
	Notify    bool          `mapstructure:"notify"`
	Debounce  time.Duration `mapstructure:"debounce"`
}

// LogConfig holds logger settings
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// WebhookURL returns the full URL Telegram should post updates to
func (c BotConfig) WebhookURL() string {
	return strings.TrimRight(c.AppURL, "/") + c.WebhookPath
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.app_url", "")
	v.SetDefault("bot.mode", "")
	v.SetDefault("bot.webhook_path", "/webhook")
	v.SetDefault("bot.secret_token", "")
	v.SetDefault("bot.max_file_size", 20<<20)
	v.SetDefault("server.port", 10000)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("queue.key", "jobs:docxmark")
	v.SetDefault("queue.workers", 4)
	v.SetDefault("storage.db_path", "./docxmark.db")
	v.SetDefault("watch.paths", []string{})
	v.SetDefault("watch.output_dir", "")
	v.SetDefault("watch.notify", false)
	v.SetDefault("watch.debounce", 500*time.Millisecond)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// bindEnv maps the environment names used by hosting platforms onto config keys
func bindEnv(v *viper.Viper) error {
	bindings := [][]string{
		{"bot.token", "DOCXMARK_BOT_TOKEN", "BOT_TOKEN"},
		{"bot.app_url", "DOCXMARK_BOT_APP_URL", "APP_URL"},
		{"server.port", "DOCXMARK_SERVER_PORT", "PORT"},
		{"redis.addr", "DOCXMARK_REDIS_ADDR", "REDIS_ADDR"},
		{"redis.db", "DOCXMARK_REDIS_DB", "REDIS_DB"},
		{"redis.password", "DOCXMARK_REDIS_PASSWORD", "REDIS_PASSWORD"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", b[0], err)
		}
	}
	return nil
}

// Load loads configuration from .env, an optional YAML file and the environment.
// With an empty configPath, ./docxmark.yaml is used when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Failed to load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("DOCXMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("docxmark")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			log.Printf("No config file found, using defaults and environment")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// webhook when a public URL is known, long polling otherwise
	if config.Bot.Mode == "" {
		if config.Bot.AppURL != "" {
			config.Bot.Mode = ModeWebhook
		} else {
			config.Bot.Mode = ModePolling
		}
	}
	config.Bot.Mode = strings.ToLower(config.Bot.Mode)

	if config.Bot.WebhookPath != "" && !strings.HasPrefix(config.Bot.WebhookPath, "/") {
		config.Bot.WebhookPath = "/" + config.Bot.WebhookPath
	}

	return &config, nil
}

// Validate checks the settings the bot cannot start without
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("BOT_TOKEN must be set")
	}
	switch c.Bot.Mode {
	case ModeWebhook:
		if c.Bot.AppURL == "" {
			return errors.New("APP_URL must be set in webhook mode")
		}
	case ModePolling:
	default:
		return fmt.Errorf("unknown bot mode %q", c.Bot.Mode)
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue.workers must be at least 1, got %d", c.Queue.Workers)
	}
	return nil
}
