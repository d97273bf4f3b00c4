package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything the client reads from config.toml.
type Config struct {
	Companion Companion
	Intervals Intervals
	Behavior  Behavior
	Log       Log
	SSE       SSE
}

// PortRange is an inclusive port block.
type PortRange struct {
	First int
	Last  int
}

// Companion describes how to reach the companion and the token endpoint.
type Companion struct {
	Host          string
	Origin        string
	UserAgent     string
	TokenURL      string
	HelperPath    string
	SecurePorts   PortRange
	InsecurePorts PortRange
	ReturnAfter   time.Duration
	RestartErrors []string
}

// Intervals are the engine's timing knobs.
type Intervals struct {
	CheckRunning    time.Duration
	CheckShutdown   time.Duration
	StartupGrace    time.Duration
	DelayAfterError time.Duration
	RetryConnection time.Duration
	PositionTick    time.Duration
	ShutdownRetries int
}

// Behavior holds policy switches.
type Behavior struct {
	NoTrack       string
	WaitForPlayer bool
}

// Log configures slog output.
type Log struct {
	Level string
	File  string
}

// SSE configures the event stream. An empty Bind disables it.
type SSE struct {
	Bind string
}

const (
	defaultConfigPath   = "~/.config/webhelper/config.toml"
	defaultLogFile      = "~/.local/state/webhelper/webhelper.log"
	defaultHost         = "127.0.0.1"
	defaultOrigin       = "https://open.spotify.com"
	defaultTokenURL     = "http://open.spotify.com/token"
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/56.0.2924.87 Safari/537.36"
	defaultLogLevel     = "info"
	defaultNoTrack      = "ignore"
	defaultReturnAfter  = 60
	defaultShutdownRuns = 15

	envLogLevel = "WEBHELPER_LOG_LEVEL"
	envLogFile  = "WEBHELPER_LOG_FILE"
	envSSEBind  = "WEBHELPER_SSE_BIND"
)

var defaultRestartErrors = []string{"Invalid OAuth token", "Expired OAuth token", "Invalid Csrf token"}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Companion: Companion{
			Host:          defaultHost,
			Origin:        defaultOrigin,
			UserAgent:     defaultUserAgent,
			TokenURL:      defaultTokenURL,
			SecurePorts:   PortRange{First: 4370, Last: 4379},
			InsecurePorts: PortRange{First: 4380, Last: 4389},
			ReturnAfter:   defaultReturnAfter * time.Second,
			RestartErrors: append([]string(nil), defaultRestartErrors...),
		},
		Intervals: Intervals{
			CheckRunning:    5 * time.Second,
			CheckShutdown:   2 * time.Second,
			StartupGrace:    3 * time.Second,
			DelayAfterError: 5 * time.Second,
			RetryConnection: 5 * time.Second,
			PositionTick:    250 * time.Millisecond,
			ShutdownRetries: defaultShutdownRuns,
		},
		Behavior: Behavior{NoTrack: defaultNoTrack, WaitForPlayer: true},
		Log:      Log{Level: defaultLogLevel, File: mustExpand(defaultLogFile)},
	}
}

type rawPorts []int

type rawConfig struct {
	Companion struct {
		Host          string   `toml:"host"`
		Origin        string   `toml:"origin"`
		UserAgent     string   `toml:"user_agent"`
		TokenURL      string   `toml:"token_url"`
		HelperPath    string   `toml:"helper_path"`
		SecurePorts   rawPorts `toml:"secure_ports"`
		InsecurePorts rawPorts `toml:"insecure_ports"`
		ReturnAfter   int      `toml:"return_after_seconds"`
		RestartErrors []string `toml:"restart_errors"`
	} `toml:"companion"`
	Intervals struct {
		CheckRunning    int `toml:"check_running"`
		CheckShutdown   int `toml:"check_shutdown"`
		StartupGrace    int `toml:"startup_grace"`
		DelayAfterError int `toml:"delay_after_error"`
		RetryConnection int `toml:"retry_connection"`
		PositionTick    int `toml:"position_tick"`
		ShutdownRetries int `toml:"shutdown_retries"`
	} `toml:"intervals"`
	Behavior struct {
		NoTrack       string `toml:"no_track"`
		WaitForPlayer *bool  `toml:"wait_for_player"`
	} `toml:"behavior"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
	SSE struct {
		Bind string `toml:"bind"`
	} `toml:"sse"`
}

// Load locates and parses the config, falling back to defaults when missing.
// Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := merge(&cfg, raw); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func merge(cfg *Config, raw rawConfig) error {
	c := &cfg.Companion
	setString(&c.Host, raw.Companion.Host)
	setString(&c.Origin, raw.Companion.Origin)
	setString(&c.UserAgent, raw.Companion.UserAgent)
	setString(&c.TokenURL, raw.Companion.TokenURL)
	if helper := strings.TrimSpace(raw.Companion.HelperPath); helper != "" {
		c.HelperPath = mustExpand(helper)
	}
	if err := setPorts(&c.SecurePorts, raw.Companion.SecurePorts, "secure_ports"); err != nil {
		return err
	}
	if err := setPorts(&c.InsecurePorts, raw.Companion.InsecurePorts, "insecure_ports"); err != nil {
		return err
	}
	if raw.Companion.ReturnAfter > 0 {
		c.ReturnAfter = time.Duration(raw.Companion.ReturnAfter) * time.Second
	}
	if restart := trimAll(raw.Companion.RestartErrors); len(restart) > 0 {
		c.RestartErrors = restart
	}

	in := &cfg.Intervals
	setMillis(&in.CheckRunning, raw.Intervals.CheckRunning)
	setMillis(&in.CheckShutdown, raw.Intervals.CheckShutdown)
	setMillis(&in.StartupGrace, raw.Intervals.StartupGrace)
	setMillis(&in.DelayAfterError, raw.Intervals.DelayAfterError)
	setMillis(&in.RetryConnection, raw.Intervals.RetryConnection)
	setMillis(&in.PositionTick, raw.Intervals.PositionTick)
	if raw.Intervals.ShutdownRetries > 0 {
		in.ShutdownRetries = raw.Intervals.ShutdownRetries
	}

	if noTrack := strings.ToLower(strings.TrimSpace(raw.Behavior.NoTrack)); noTrack != "" {
		switch noTrack {
		case "ignore", "error", "fatal":
			cfg.Behavior.NoTrack = noTrack
		default:
			return fmt.Errorf("parse config: behavior.no_track %q must be ignore, error or fatal", raw.Behavior.NoTrack)
		}
	}
	if raw.Behavior.WaitForPlayer != nil {
		cfg.Behavior.WaitForPlayer = *raw.Behavior.WaitForPlayer
	}

	setString(&cfg.Log.Level, raw.Log.Level)
	if logFile := strings.TrimSpace(raw.Log.File); logFile != "" {
		cfg.Log.File = mustExpand(logFile)
	}
	cfg.SSE.Bind = strings.TrimSpace(raw.SSE.Bind)
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogFile)); v != "" {
		cfg.Log.File = mustExpand(v)
	}
	if v := strings.TrimSpace(os.Getenv(envSSEBind)); v != "" {
		cfg.SSE.Bind = v
	}
}

// GetLogLevel maps the configured level onto slog.
func (c Config) GetLogLevel() slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "error":
		return slog.LevelError
	case "warning", "warn":
		return slog.LevelWarn
	case "info", "":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	}
	slog.With(slog.String("log_level", c.Log.Level)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}

func setString(dst *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dst = trimmed
	}
}

func setMillis(dst *time.Duration, ms int) {
	if ms > 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
}

func setPorts(dst *PortRange, raw rawPorts, key string) error {
	if len(raw) == 0 {
		return nil
	}
	if len(raw) != 2 || raw[0] <= 0 || raw[1] > 65535 || raw[1] < raw[0] {
		return fmt.Errorf("parse config: companion.%s must be [first, last], got %v", key, []int(raw))
	}
	*dst = PortRange{First: raw[0], Last: raw[1]}
	return nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
