package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/park285/cheese-checkers/internal/engine"
)

var envKeys = []string{
	"CHECKERS_CONFIG", "CHECKERS_ADDR", "REDIS_URL", "CHECKERS_DEFAULT_PRESET",
	"CHECKERS_AI_PLAYER", "CHECKERS_SESSION_TTL", "CHECKERS_AUTO_MOVE_DELAY",
	"CHECKERS_CONTINUATION_DELAY_MS", "MSG_OVERRIDE_DIR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DefaultPreset != "auto" || cfg.AIPlayer != checkers.Black {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionTTL != time.Hour || cfg.AutoMoveCountdown != 5 || cfg.ContinuationDelay != 100*time.Millisecond {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHECKERS_ADDR", "127.0.0.1:9000")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("CHECKERS_DEFAULT_PRESET", "level4")
	t.Setenv("CHECKERS_AI_PLAYER", "none")
	t.Setenv("CHECKERS_SESSION_TTL", "90m")
	t.Setenv("CHECKERS_AUTO_MOVE_DELAY", "0")
	t.Setenv("CHECKERS_CONTINUATION_DELAY_MS", "250")
	t.Setenv("MSG_OVERRIDE_DIR", "/etc/checkers/messages")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.RedisURL != "redis://localhost:6379/1" {
		t.Fatalf("addr/redis not applied: %+v", cfg)
	}
	if cfg.DefaultPreset != "level4" || cfg.AIPlayer != "" {
		t.Fatalf("preset/ai player not applied: %+v", cfg)
	}
	if cfg.SessionTTL != 90*time.Minute || cfg.AutoMoveCountdown != 0 || cfg.ContinuationDelay != 250*time.Millisecond {
		t.Fatalf("timing not applied: %+v", cfg)
	}
	if cfg.MsgOverrideDir != "/etc/checkers/messages" {
		t.Fatalf("msg dir not applied: %q", cfg.MsgOverrideDir)
	}
}

func TestLoadSessionTTLSeconds(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHECKERS_SESSION_TTL", "120")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionTTL != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", cfg.SessionTTL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"preset":     {"CHECKERS_DEFAULT_PRESET", "grandmaster"},
		"player":     {"CHECKERS_AI_PLAYER", "red"},
		"ttl":        {"CHECKERS_SESSION_TTL", "soon"},
		"negative":   {"CHECKERS_AUTO_MOVE_DELAY", "-1"},
		"not number": {"CHECKERS_CONTINUATION_DELAY_MS", "fast"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "checkers.yaml")
	body := `addr: ":7000"
default_preset: blitz
ai_player: white
session_ttl: 30m
auto_move_delay: 3
continuation_delay_ms: 50
presets:
  - name: Blitz
    depth: 3
    move_time_ms: 150
    nodes: 5000
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHECKERS_CONFIG", path)
	t.Setenv("CHECKERS_ADDR", ":7100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7100" {
		t.Fatalf("env should override file addr, got %q", cfg.Addr)
	}
	if cfg.AIPlayer != checkers.White || cfg.SessionTTL != 30*time.Minute || cfg.AutoMoveCountdown != 3 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ContinuationDelay != 50*time.Millisecond {
		t.Fatalf("continuation delay: %s", cfg.ContinuationDelay)
	}
	if len(cfg.Presets) != 1 {
		t.Fatalf("expected one preset, got %d", len(cfg.Presets))
	}

	if err := cfg.RegisterPresets(); err != nil {
		t.Fatalf("RegisterPresets: %v", err)
	}
	p, err := engine.GetPreset("blitz")
	if err != nil || p.DepthCap != 3 {
		t.Fatalf("registered preset: %+v %v", p, err)
	}
}

func TestLoadFileInvalidPreset(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "checkers.yaml")
	body := "presets:\n  - name: deep\n    depth: 40\n    move_time_ms: 100\n    nodes: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHECKERS_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid preset error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHECKERS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
