// Package config handles the XDG configuration directory, the optional
// config.toml file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is the application directory name.
	AppName = "tasktracker"

	// ConfigFile is the optional TOML settings filename.
	ConfigFile = "config.toml"

	// SessionFile is the stored REST session filename.
	SessionFile = "session.json"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored Google OAuth token filename.
	TokenFile = "token.json"

	// TUILogFile receives logs while the TUI owns the terminal.
	TUILogFile = "tui.log"
)

// Backend names.
const (
	BackendREST   = "rest"
	BackendGoogle = "google"
)

// Environment variables.
const (
	EnvAPIURL   = "TASKTRACKER_API_URL"
	EnvBackend  = "TASKTRACKER_BACKEND"
	EnvTimeout  = "TASKTRACKER_TIMEOUT"
	EnvLogLevel = "TASKTRACKER_LOG_LEVEL"
)

const (
	// DefaultTimeout bounds each API call.
	DefaultTimeout = 5 * time.Second

	// DefaultDateFormat is the short date layout used for display.
	DefaultDateFormat = "01/02/2006"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the REST API base URL.
	APIURL string

	// Backend selects the remote authority: "rest" or "google".
	Backend string

	// Timeout bounds each API call.
	Timeout time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// DateFormat is the Go layout used to display due dates.
	DateFormat string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	APIURL     string `toml:"api_url"`
	Backend    string `toml:"backend"`
	Timeout    string `toml:"timeout"`
	LogLevel   string `toml:"log_level"`
	DateFormat string `toml:"date_format"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasktracker or $HOME/.config/tasktracker.
// Values come from defaults, then config.toml, then the environment.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:        dir,
		Backend:    BackendREST,
		Timeout:    DefaultTimeout,
		LogLevel:   "warn",
		DateFormat: DefaultDateFormat,
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile() error {
	var fc fileConfig
	_, err := toml.DecodeFile(c.FilePath(), &fc)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	if fc.APIURL != "" {
		c.APIURL = fc.APIURL
	}
	if fc.Backend != "" {
		c.Backend = strings.ToLower(fc.Backend)
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q in %s: %w", fc.Timeout, ConfigFile, err)
		}
		c.Timeout = d
	}
	if fc.LogLevel != "" {
		c.LogLevel = strings.ToLower(fc.LogLevel)
	}
	if fc.DateFormat != "" {
		c.DateFormat = fc.DateFormat
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendREST:
		if c.APIURL == "" {
			return fmt.Errorf("%s is not set", EnvAPIURL)
		}
		if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
			return fmt.Errorf("invalid %s %q: must start with http:// or https://", EnvAPIURL, c.APIURL)
		}
	case BackendGoogle:
	default:
		return fmt.Errorf("invalid backend %q: must be one of rest, google", c.Backend)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be greater than zero", c.Timeout)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// SessionPath returns the path to the stored REST session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// OAuthClientPath returns the path to the Google OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored Google OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// TUILogPath returns the path of the TUI log file.
func (c *Config) TUILogPath() string {
	return filepath.Join(c.Dir, TUILogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the Google token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the Google token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
