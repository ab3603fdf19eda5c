package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent != "claude" {
		t.Errorf("agent = %q, want claude", cfg.Agent)
	}
	if cfg.ExitCommand != "/exit" {
		t.Errorf("exit_command = %q, want /exit", cfg.ExitCommand)
	}
	if len(cfg.WakePhrases) == 0 {
		t.Error("default wake phrases missing")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
agent: codex
stt:
  url: ws://localhost:9999/stt
wake_phrases: [computer]
exit_command: /quit
typing:
  char_delay: 25ms
  settle_delay: 100ms
poll_interval: 200ms
grace_period: 5s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent != "codex" {
		t.Errorf("agent = %q, want codex", cfg.Agent)
	}
	if cfg.STT.URL != "ws://localhost:9999/stt" {
		t.Errorf("stt url = %q", cfg.STT.URL)
	}
	if cfg.ExitCommand != "/quit" {
		t.Errorf("exit_command = %q, want /quit", cfg.ExitCommand)
	}
	if got := cfg.CharDelay(); got != 25*time.Millisecond {
		t.Errorf("CharDelay = %v, want 25ms", got)
	}
	if got := cfg.SettleDelay(); got != 100*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 100ms", got)
	}
	if got := cfg.PollInterval(); got != 200*time.Millisecond {
		t.Errorf("PollInterval = %v, want 200ms", got)
	}
	if got := cfg.GracePeriod(); got != 5*time.Second {
		t.Errorf("GracePeriod = %v, want 5s", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VOXTERM_AGENT", "ollama")
	t.Setenv("VOXTERM_STT_URL", "ws://envhost:1234/stt")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent != "ollama" {
		t.Errorf("agent = %q, want ollama", cfg.Agent)
	}
	if cfg.STT.URL != "ws://envhost:1234/stt" {
		t.Errorf("stt url = %q, want env override", cfg.STT.URL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
agent: claude
stt:
  url: ws://localhost:8765/stt
wake_phrases: [claude]
exit_command: /exit
poll_interval: soon
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestValidateRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"agent", func(c *Config) { c.Agent = "" }},
		{"stt url", func(c *Config) { c.STT.URL = "" }},
		{"wake phrases", func(c *Config) { c.WakePhrases = nil }},
		{"exit command", func(c *Config) { c.ExitCommand = "" }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestDurationDefaults(t *testing.T) {
	cfg := Default()
	if got := cfg.CharDelay(); got != 10*time.Millisecond {
		t.Errorf("CharDelay = %v, want 10ms", got)
	}
	if got := cfg.SettleDelay(); got != 50*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 50ms", got)
	}
	if got := cfg.PollInterval(); got != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", got)
	}
	if got := cfg.GracePeriod(); got != 3*time.Second {
		t.Errorf("GracePeriod = %v, want 3s", got)
	}
}
