// Package config loads udt settings from the environment, optionally seeded
// from a .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// AppDirName is the directory under ~/.config holding local state.
const AppDirName = "usage-dashboard-tui"

// Config is the resolved configuration.
type Config struct {
	APIURL               string
	SessionPath          string
	DatabasePath         string
	LogPath              string
	LogLevel             string
	DefaultPeriod        models.Period
	RequestTimeout       time.Duration
	RefreshInterval      time.Duration
	AutoRefresh          bool
	DesktopNotifications bool
}

const (
	defaultAPIURL          = "http://localhost:3000/api/v1"
	defaultRequestTimeout  = 30 * time.Second
	defaultRefreshInterval = 30 * time.Second
	defaultLogLevel        = "info"
)

// Load applies the first .env file found, then reads the environment.
// Variables already set win over the file.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	period, err := envOr("DEFAULT_PERIOD", models.DefaultPeriod, models.ParsePeriod)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:               strings.TrimRight(getEnvString("API_URL", defaultAPIURL), "/"),
		SessionPath:          getEnvString("SESSION_PATH", defaultPath("session.json")),
		DatabasePath:         getEnvString("DATABASE_PATH", defaultPath("usage.db")),
		LogPath:              getEnvString("LOG_PATH", defaultPath("udt.log")),
		LogLevel:             strings.ToLower(getEnvString("LOG_LEVEL", defaultLogLevel)),
		DefaultPeriod:        period,
		RequestTimeout:       getEnvDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		RefreshInterval:      getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		AutoRefresh:          getEnvBool("AUTO_REFRESH", true),
		DesktopNotifications: getEnvBool("DESKTOP_NOTIFICATIONS", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, p := range []string{cfg.SessionPath, cfg.DatabasePath, cfg.LogPath} {
		if err := ensureDir(filepath.Dir(p)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate checks the values that have no safe fallback.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_URL must be an absolute http(s) URL, got %q", c.APIURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.RefreshInterval < time.Second {
		errs = append(errs, errors.New("REFRESH_INTERVAL must be at least 1s"))
	}
	if c.SessionPath == "" {
		errs = append(errs, errors.New("SESSION_PATH must not be empty"))
	}
	return errors.Join(errs...)
}

// getEnvPaths lists candidate .env files: the working directory, the app
// config directory, then the parent of the working directory.
func getEnvPaths() []string {
	var paths []string
	cwd, cwdErr := os.Getwd()
	if cwdErr == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", AppDirName, ".env"))
	}
	if cwdErr == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}
	return paths
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", AppDirName, name)
}

// envOr parses key with parse, returning def when the variable is unset or
// empty. Parse failures name the variable.
func envOr[T any](key string, def T, parse func(string) (T, error)) (T, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := parse(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// lenient is envOr for settings where a bad value falls back to def.
func lenient[T any](key string, def T, parse func(string) (T, error)) T {
	v, _ := envOr(key, def, parse)
	return v
}

func getEnvString(key, def string) string {
	return lenient(key, def, func(s string) (string, error) { return s, nil })
}

// getEnvDuration accepts Go durations ("30s", "1m") or a bare number of
// seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	return lenient(key, def, func(s string) (time.Duration, error) {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		secs, err := strconv.Atoi(s)
		return time.Duration(secs) * time.Second, err
	})
}

func getEnvBool(key string, def bool) bool {
	return lenient(key, def, strconv.ParseBool)
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
