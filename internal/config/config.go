package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sink names accepted in notify.sinks.
const (
	SinkDesktop  = "desktop"
	SinkTelegram = "telegram"
	SinkConsole  = "console"
)

// Config holds all application configuration.
type Config struct {
	Moodle struct {
		BaseURL        string `yaml:"base_url"`
		Token          string `yaml:"token"`
		Service        string `yaml:"service"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"moodle"`
	Grading struct {
		MaxTotal float64 `yaml:"max_total"`
	} `yaml:"grading"`
	Storage struct {
		DataDir           string `yaml:"data_dir"`
		SnapshotFile      string `yaml:"snapshot_file"`
		HistoryFile       string `yaml:"history_file"`
		CurrentGradesFile string `yaml:"current_grades_file"`
		SQLitePath        string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Schedule struct {
		CheckCron string `yaml:"check_cron"`
	} `yaml:"schedule"`
	Notify struct {
		Sinks []string `yaml:"sinks"`
	} `yaml:"notify"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MOODLE_BASE_URL"); v != "" {
		cfg.Moodle.BaseURL = v
	}
	if v := os.Getenv("MOODLE_TOKEN"); v != "" {
		cfg.Moodle.Token = v
	}
	if v := os.Getenv("MAX_TOTAL"); v != "" {
		maxTotal, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse MAX_TOTAL: %w", err)
		}
		cfg.Grading.MaxTotal = maxTotal
	}
	if v := os.Getenv("CHECK_CRON"); v != "" {
		cfg.Schedule.CheckCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("NOTIFY_SINKS"); v != "" {
		cfg.Notify.Sinks = splitList(v)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Moodle.Service == "" {
		c.Moodle.Service = "moodle_mobile_app"
	}
	if c.Moodle.TimeoutSeconds == 0 {
		c.Moodle.TimeoutSeconds = 30
	}
	if c.Grading.MaxTotal == 0 {
		c.Grading.MaxTotal = 20
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	dir := c.Storage.DataDir
	if c.Storage.SnapshotFile == "" {
		c.Storage.SnapshotFile = filepath.Join(dir, "previous_grades.json")
	}
	if c.Storage.HistoryFile == "" {
		c.Storage.HistoryFile = filepath.Join(dir, "grade_history.txt")
	}
	if c.Storage.CurrentGradesFile == "" {
		c.Storage.CurrentGradesFile = filepath.Join(dir, "current_grades.txt")
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = filepath.Join(dir, "grade_sentinel.db")
	}
	if c.Schedule.CheckCron == "" {
		c.Schedule.CheckCron = "0 */30 * * * *"
	}
	if len(c.Notify.Sinks) == 0 {
		c.Notify.Sinks = []string{SinkDesktop}
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Moodle.BaseURL == "" {
		return fmt.Errorf("moodle.base_url is required")
	}
	if c.Moodle.Token == "" {
		return fmt.Errorf("moodle.token is required")
	}
	if c.Moodle.TimeoutSeconds <= 0 {
		return fmt.Errorf("moodle.timeout_seconds must be positive")
	}
	if c.Grading.MaxTotal <= 0 {
		return fmt.Errorf("grading.max_total must be positive")
	}
	for _, s := range c.Notify.Sinks {
		switch s {
		case SinkDesktop, SinkConsole:
		case SinkTelegram:
			if c.Telegram.BotToken == "" {
				return fmt.Errorf("telegram.bot_token is required for the telegram sink")
			}
			if c.Telegram.ChatID == "" {
				return fmt.Errorf("telegram.chat_id is required for the telegram sink")
			}
		default:
			return fmt.Errorf("notify.sinks: unknown sink %q", s)
		}
	}
	return nil
}

// Timeout returns the Moodle request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Moodle.TimeoutSeconds) * time.Second
}

// RecorderEnabled reports whether the SQLite history is configured.
// sqlite_path "none" turns it off.
func (c *Config) RecorderEnabled() bool {
	return c.Storage.SQLitePath != "none"
}

// HasSink reports whether the named sink is selected.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Notify.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
