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

// Config holds the settings of the step analysis client.
type Config struct {
	ServiceURL         string
	AuthToken          string
	RequestTimeout     time.Duration
	CountdownInterval  time.Duration
	LogFile            string
	LogLevel           slog.Level
	LogFormat          string
	MetricsAddr        string
	ParamSpecCacheSize int
}

const (
	defaultConfigPath         = "~/.config/stepanalysis/config.toml"
	defaultServiceURL         = "http://localhost:8080/service"
	defaultRequestTimeout     = 30 * time.Second
	defaultCountdownInterval  = time.Second
	defaultLogFile            = "~/.local/state/stepanalysis/stepanalysis.log"
	defaultLogFormat          = "text"
	defaultParamSpecCacheSize = 64
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServiceURL:         defaultServiceURL,
		RequestTimeout:     defaultRequestTimeout,
		CountdownInterval:  defaultCountdownInterval,
		LogFile:            mustExpand(defaultLogFile),
		LogLevel:           slog.LevelInfo,
		LogFormat:          defaultLogFormat,
		ParamSpecCacheSize: defaultParamSpecCacheSize,
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
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
		ServiceURL         string `toml:"service_url"`
		AuthToken          string `toml:"auth_token"`
		RequestTimeout     string `toml:"request_timeout"`
		CountdownInterval  string `toml:"countdown_interval"`
		LogFile            string `toml:"log_file"`
		LogLevel           string `toml:"log_level"`
		LogFormat          string `toml:"log_format"`
		MetricsAddr        string `toml:"metrics_addr"`
		ParamSpecCacheSize int    `toml:"param_spec_cache_size"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.ServiceURL); v != "" {
		cfg.ServiceURL = v
	}
	cfg.AuthToken = strings.TrimSpace(raw.AuthToken)
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.CountdownInterval, err = parseDuration("countdown_interval", raw.CountdownInterval, defaultCountdownInterval); err != nil {
		return Config{}, err
	}

	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("parse config: log_level: %w", err)
		}
	}
	switch v := strings.ToLower(strings.TrimSpace(raw.LogFormat)); v {
	case "":
	case "text", "json":
		cfg.LogFormat = v
	default:
		return Config{}, fmt.Errorf("parse config: log_format %q: want text or json", v)
	}
	if raw.ParamSpecCacheSize > 0 {
		cfg.ParamSpecCacheSize = raw.ParamSpecCacheSize
	}

	return cfg, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse config: %s must be positive", key)
	}
	return d, nil
}

// ExpandPath resolves a leading tilde and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
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
