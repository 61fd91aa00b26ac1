package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken       string `yaml:"bot_token"`
		AnnounceChatID string `yaml:"announce_chat_id"`
		AdminChatID    string `yaml:"admin_chat_id"`
	} `yaml:"telegram"`
	Duty struct {
		Timezone         string   `yaml:"timezone"`
		FineAmount       int64    `yaml:"fine_amount"`
		ConfirmMode      string   `yaml:"confirm_mode"` // "evidence" or "self"
		EligibleIDs      []string `yaml:"eligible_ids"`
		ProofWaitSeconds int      `yaml:"proof_wait_seconds"`
		LeaderboardSize  int      `yaml:"leaderboard_size"`
		StateFile        string   `yaml:"state_file"`
	} `yaml:"duty"`
	Schedule struct {
		CloseCron    string `yaml:"close_cron"`
		SettleCron   string `yaml:"settle_cron"`
		ReopenCron   string `yaml:"reopen_cron"`
		RolloverCron string `yaml:"rollover_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
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
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("ANNOUNCE_CHAT_ID"); v != "" {
		cfg.Telegram.AnnounceChatID = v
	}
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		cfg.Telegram.AdminChatID = v
	}
	if v := os.Getenv("FINE_AMOUNT"); v != "" {
		if amount, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Duty.FineAmount = amount
		}
	}
	if v := os.Getenv("DUTY_TIMEZONE"); v != "" {
		cfg.Duty.Timezone = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Duty.StateFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Duty.Timezone == "" {
		cfg.Duty.Timezone = "Asia/Bangkok"
	}
	if cfg.Duty.FineAmount == 0 {
		cfg.Duty.FineAmount = 100000
	}
	if cfg.Duty.ConfirmMode == "" {
		cfg.Duty.ConfirmMode = "evidence"
	}
	if cfg.Duty.ProofWaitSeconds == 0 {
		cfg.Duty.ProofWaitSeconds = 60
	}
	if cfg.Duty.LeaderboardSize == 0 {
		cfg.Duty.LeaderboardSize = 10
	}
	if cfg.Duty.StateFile == "" {
		cfg.Duty.StateFile = "data/roster_state.json"
	}
	// Daily trigger order: reopen 00:05 (the previous cycle settled at
	// 23:59), survey collects through the morning, close+select at noon,
	// proof until the 23:59 settlement.
	if cfg.Schedule.CloseCron == "" {
		cfg.Schedule.CloseCron = "0 0 12 * * *"
	}
	if cfg.Schedule.SettleCron == "" {
		cfg.Schedule.SettleCron = "0 59 23 * * *"
	}
	if cfg.Schedule.ReopenCron == "" {
		cfg.Schedule.ReopenCron = "0 5 0 * * *"
	}
	if cfg.Schedule.RolloverCron == "" {
		cfg.Schedule.RolloverCron = "0 0 9 * * 1"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/duty_history.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and parseable.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.AnnounceChatID == "" {
		return fmt.Errorf("telegram.announce_chat_id is required")
	}
	if c.Telegram.AdminChatID == "" {
		return fmt.Errorf("telegram.admin_chat_id is required")
	}
	if c.Duty.FineAmount <= 0 {
		return fmt.Errorf("duty.fine_amount must be positive")
	}
	if mode := c.Duty.ConfirmMode; mode != "evidence" && mode != "self" {
		return fmt.Errorf("duty.confirm_mode must be \"evidence\" or \"self\", got %q", mode)
	}
	if _, err := time.LoadLocation(c.Duty.Timezone); err != nil {
		return fmt.Errorf("duty.timezone: %w", err)
	}
	return nil
}

// Location returns the configured duty time zone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Duty.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
