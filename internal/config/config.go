package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything wrldshot reads from config.toml.
type Config struct {
	LogDir        string
	LogPattern    string
	PollInterval  time.Duration
	RecentLimit   int
	DataDir       string
	APIBind       string // empty disables the status API
	MCPBind       string // empty disables the MCP endpoint
	ReplayOnStart bool
	FollowLatest  bool
}

const (
	defaultConfigPath   = "~/.config/wrldshot/config.toml"
	defaultLogDir       = "~/AppData/LocalLow/VRChat/VRChat"
	defaultLogPattern   = "output_log_*.txt"
	defaultPollInterval = 5 * time.Second
	defaultRecentLimit  = 5
	defaultDataDir      = "~/.local/share/wrldshot"
	defaultAPIBind      = "127.0.0.1:7489"
)

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogDir:        mustExpand(defaultLogDir),
		LogPattern:    defaultLogPattern,
		PollInterval:  defaultPollInterval,
		RecentLimit:   defaultRecentLimit,
		DataDir:       mustExpand(defaultDataDir),
		APIBind:       defaultAPIBind,
		ReplayOnStart: true,
		FollowLatest:  true,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		LogDir        string `toml:"log_dir"`
		LogPattern    string `toml:"log_pattern"`
		PollInterval  string `toml:"poll_interval"`
		RecentLimit   int    `toml:"recent_limit"`
		DataDir       string `toml:"data_dir"`
		APIBind       string `toml:"api_bind"`
		MCPBind       string `toml:"mcp_bind"`
		ReplayOnStart *bool  `toml:"replay_on_start"`
		FollowLatest  *bool  `toml:"follow_latest"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if dir := strings.TrimSpace(raw.LogDir); dir != "" {
		cfg.LogDir = mustExpand(dir)
	}
	if pattern := strings.TrimSpace(raw.LogPattern); pattern != "" {
		if !doublestar.ValidatePattern(pattern) {
			return Config{}, fmt.Errorf("parse config: invalid log_pattern %q", pattern)
		}
		cfg.LogPattern = pattern
	}
	if interval := strings.TrimSpace(raw.PollInterval); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: poll_interval: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse config: poll_interval must be positive, got %s", d)
		}
		cfg.PollInterval = d
	}
	switch {
	case raw.RecentLimit < 0:
		return Config{}, fmt.Errorf("parse config: recent_limit must not be negative, got %d", raw.RecentLimit)
	case raw.RecentLimit > 0:
		cfg.RecentLimit = raw.RecentLimit
	}
	if dir := strings.TrimSpace(raw.DataDir); dir != "" {
		cfg.DataDir = mustExpand(dir)
	}
	switch bind := strings.TrimSpace(raw.APIBind); bind {
	case "":
	case "off":
		cfg.APIBind = ""
	default:
		cfg.APIBind = bind
	}
	cfg.MCPBind = strings.TrimSpace(raw.MCPBind)
	if raw.ReplayOnStart != nil {
		cfg.ReplayOnStart = *raw.ReplayOnStart
	}
	if raw.FollowLatest != nil {
		cfg.FollowLatest = *raw.FollowLatest
	}

	return cfg, nil
}

// HistoryPath returns the rename journal database path.
func (c Config) HistoryPath() string {
	return filepath.Join(c.dataDir(), "history.db")
}

// TraceLogPath returns the file log output goes to while the TUI owns the
// terminal.
func (c Config) TraceLogPath() string {
	return filepath.Join(c.dataDir(), "wrldshot.log")
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
