package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/park285/cheese-checkers/internal/engine"
	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	Addr     string
	RedisURL string

	DefaultPreset string
	// AIPlayer is "white", "black" or "" for hot-seat sessions.
	AIPlayer          checkers.Player
	SessionTTL        time.Duration
	SweepInterval     time.Duration
	AutoMoveCountdown int
	ContinuationDelay time.Duration
	MaxAIIterations   int

	MsgOverrideDir string

	// Presets come from the YAML file only and are added to the engine
	// registry by RegisterPresets.
	Presets []engine.DifficultyPreset
}

type fileConfig struct {
	Addr                string                    `yaml:"addr"`
	RedisURL            string                    `yaml:"redis_url"`
	DefaultPreset       string                    `yaml:"default_preset"`
	AIPlayer            *string                   `yaml:"ai_player"`
	SessionTTL          string                    `yaml:"session_ttl"`
	SweepInterval       string                    `yaml:"sweep_interval"`
	AutoMoveDelay       *int                      `yaml:"auto_move_delay"`
	ContinuationDelayMS *int                      `yaml:"continuation_delay_ms"`
	MaxAIIterations     int                       `yaml:"max_ai_iterations"`
	MsgOverrideDir      string                    `yaml:"msg_override_dir"`
	Presets             []engine.DifficultyPreset `yaml:"presets"`
}

func defaults() *AppConfig {
	return &AppConfig{
		Addr:              ":8080",
		DefaultPreset:     "auto",
		AIPlayer:          checkers.Black,
		SessionTTL:        time.Hour,
		SweepInterval:     time.Minute,
		AutoMoveCountdown: 5,
		ContinuationDelay: 100 * time.Millisecond,
		MaxAIIterations:   20,
	}
}

// Load reads the optional YAML file named by CHECKERS_CONFIG, then
// applies environment overrides and validates the result.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CHECKERS_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if v := strings.TrimSpace(fc.Addr); v != "" {
		c.Addr = v
	}
	if v := strings.TrimSpace(fc.RedisURL); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(fc.DefaultPreset); v != "" {
		c.DefaultPreset = v
	}
	if fc.AIPlayer != nil {
		p, err := parseAIPlayer(*fc.AIPlayer)
		if err != nil {
			return err
		}
		c.AIPlayer = p
	}
	if v := strings.TrimSpace(fc.SessionTTL); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("session_ttl: %w", err)
		}
		c.SessionTTL = d
	}
	if v := strings.TrimSpace(fc.SweepInterval); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("sweep_interval: %w", err)
		}
		c.SweepInterval = d
	}
	if fc.AutoMoveDelay != nil {
		c.AutoMoveCountdown = *fc.AutoMoveDelay
	}
	if fc.ContinuationDelayMS != nil {
		c.ContinuationDelay = time.Duration(*fc.ContinuationDelayMS) * time.Millisecond
	}
	if fc.MaxAIIterations > 0 {
		c.MaxAIIterations = fc.MaxAIIterations
	}
	if v := strings.TrimSpace(fc.MsgOverrideDir); v != "" {
		c.MsgOverrideDir = v
	}
	c.Presets = fc.Presets
	return nil
}

func (c *AppConfig) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("CHECKERS_ADDR")); v != "" {
		c.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHECKERS_DEFAULT_PRESET")); v != "" {
		c.DefaultPreset = v
	}
	if v := strings.TrimSpace(os.Getenv("CHECKERS_AI_PLAYER")); v != "" {
		p, err := parseAIPlayer(v)
		if err != nil {
			return err
		}
		c.AIPlayer = p
	}
	if v := strings.TrimSpace(os.Getenv("CHECKERS_SESSION_TTL")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("CHECKERS_SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if v := strings.TrimSpace(os.Getenv("CHECKERS_AUTO_MOVE_DELAY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHECKERS_AUTO_MOVE_DELAY: %w", err)
		}
		c.AutoMoveCountdown = n
	}
	if v := strings.TrimSpace(os.Getenv("CHECKERS_CONTINUATION_DELAY_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHECKERS_CONTINUATION_DELAY_MS: %w", err)
		}
		c.ContinuationDelay = time.Duration(n) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR")); v != "" {
		c.MsgOverrideDir = v
	}
	return nil
}

// parseAIPlayer maps "none", "off" and "" to hot-seat play.
func parseAIPlayer(v string) (checkers.Player, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "none", "off", "hotseat":
		return "", nil
	}
	p, err := checkers.ParsePlayer(v)
	if err != nil {
		return "", fmt.Errorf("ai player: %w", err)
	}
	return p, nil
}

// parseDuration accepts Go durations ("90m") or plain seconds ("3600").
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("CHECKERS_ADDR must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be > 0: %s", c.SessionTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be > 0: %s", c.SweepInterval)
	}
	if c.AutoMoveCountdown < 0 {
		return fmt.Errorf("auto move delay must be >= 0: %d", c.AutoMoveCountdown)
	}
	if c.ContinuationDelay < 0 {
		return fmt.Errorf("continuation delay must be >= 0: %s", c.ContinuationDelay)
	}
	names := make(map[string]bool, len(c.Presets))
	for _, p := range c.Presets {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return errors.New("preset without name in config file")
		}
		if err := engine.ValidatePreset(p); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		names[name] = true
	}
	if !names[strings.ToLower(strings.TrimSpace(c.DefaultPreset))] {
		if _, err := engine.GetPreset(c.DefaultPreset); err != nil {
			return fmt.Errorf("default preset: %w", err)
		}
	}
	return nil
}

// RegisterPresets adds the file presets to the engine registry.
func (c *AppConfig) RegisterPresets() error {
	for _, p := range c.Presets {
		if err := engine.RegisterPreset(p); err != nil {
			return err
		}
	}
	return nil
}
