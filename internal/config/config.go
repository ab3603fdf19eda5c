package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration, persisted in
// ~/.voxterm/config.yaml. Durations are strings ("10ms", "3s") so the file
// stays hand-editable; accessors parse them with defaults.
type Config struct {
	Agent       string        `yaml:"agent"`
	STT         STTConfig     `yaml:"stt"`
	WakePhrases []string      `yaml:"wake_phrases,omitempty"`
	Fillers     []string      `yaml:"fillers,omitempty"`
	ExitCommand string        `yaml:"exit_command,omitempty"`
	Typing      TypingConfig  `yaml:"typing,omitempty"`
	Poll        string        `yaml:"poll_interval,omitempty"`
	Grace       string        `yaml:"grace_period,omitempty"`
	Logging     LoggingConfig `yaml:"logging,omitempty"`
	History     HistoryConfig `yaml:"history,omitempty"`
}

type STTConfig struct {
	URL string `yaml:"url"`
}

type TypingConfig struct {
	CharDelay   string `yaml:"char_delay,omitempty"`
	SettleDelay string `yaml:"settle_delay,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{
		Agent: "claude",
		STT:   STTConfig{URL: "ws://127.0.0.1:8765/stt"},
		// Longest phrases listed first; matching re-sorts longest-first
		// anyway so substring phrases ("claude") never shadow longer ones.
		WakePhrases: []string{"hey claude", "ok claude", "hi claude", "claude"},
		Fillers:     []string{"please", "can you", "could you", "would you"},
		ExitCommand: "/exit",
	}
}

// Load reads configuration from path. A missing file yields the defaults.
// Environment variables VOXTERM_AGENT and VOXTERM_STT_URL override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables if present
	if agent := os.Getenv("VOXTERM_AGENT"); agent != "" {
		cfg.Agent = agent
	}
	if url := os.Getenv("VOXTERM_STT_URL"); url != "" {
		cfg.STT.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Agent == "" {
		return fmt.Errorf("agent is required")
	}
	if c.STT.URL == "" {
		return fmt.Errorf("stt.url is required")
	}
	if len(c.WakePhrases) == 0 {
		return fmt.Errorf("wake_phrases must not be empty")
	}
	if c.ExitCommand == "" {
		return fmt.Errorf("exit_command is required")
	}
	for name, v := range map[string]string{
		"typing.char_delay":   c.Typing.CharDelay,
		"typing.settle_delay": c.Typing.SettleDelay,
		"poll_interval":       c.Poll,
		"grace_period":        c.Grace,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// CharDelay is the pause between injected characters (default 10ms).
func (c *Config) CharDelay() time.Duration {
	return c.duration(c.Typing.CharDelay, 10*time.Millisecond)
}

// SettleDelay is the pause before the terminating carriage return (default 50ms).
func (c *Config) SettleDelay() time.Duration {
	return c.duration(c.Typing.SettleDelay, 50*time.Millisecond)
}

// PollInterval bounds how long any relay loop waits before rechecking the
// running flag (default 100ms).
func (c *Config) PollInterval() time.Duration {
	return c.duration(c.Poll, 100*time.Millisecond)
}

// GracePeriod is how long Stop waits for the child before escalating to a
// termination signal (default 3s).
func (c *Config) GracePeriod() time.Duration {
	return c.duration(c.Grace, 3*time.Second)
}

func (c *Config) duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
