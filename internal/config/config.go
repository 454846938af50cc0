package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/jask/fintrack/internal/ledger"
	"github.com/jask/fintrack/internal/logging"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig
	UI     UIConfig
	Log    LogConfig
}

// ServerConfig points at the finance backend.
type ServerConfig struct {
	BaseURL string        `mapstructure:"base_url" toml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" toml:"timeout"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat     string `mapstructure:"date_format" toml:"date_format"`
	CurrencySymbol string `mapstructure:"currency_symbol" toml:"currency_symbol"`
	Timezone       string `mapstructure:"timezone" toml:"timezone"`
	DefaultPeriod  string `mapstructure:"default_period" toml:"default_period"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Path  string `mapstructure:"path" toml:"path"`
	Level string `mapstructure:"level" toml:"level"`
}

// Logging converts to the logger's own config.
func (l LogConfig) Logging() logging.Config {
	return logging.Config{Path: l.Path, Level: l.Level}
}

// DefaultPath is where the config file is looked up when FINTRACK_CONFIG is unset.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "fintrack", "config.toml")
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{BaseURL: "http://127.0.0.1:5000", Timeout: 10 * time.Second},
		UI: UIConfig{
			DateFormat:     "02/Jan/06",
			CurrencySymbol: "₹",
			Timezone:       "Local",
			DefaultPeriod:  string(ledger.DefaultPeriod),
		},
		Log: LogConfig{
			Path:  filepath.Join(os.Getenv("HOME"), ".local", "state", "fintrack", "fintrack.log"),
			Level: "info",
		},
	}
}

// Load reads configuration from file and env. Env var overrides use prefix FINTRACK_.
// path wins over FINTRACK_CONFIG; a missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("ui.date_format", d.UI.DateFormat)
	v.SetDefault("ui.currency_symbol", d.UI.CurrencySymbol)
	v.SetDefault("ui.timezone", d.UI.Timezone)
	v.SetDefault("ui.default_period", d.UI.DefaultPeriod)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv("FINTRACK_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("FINTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate checks the configuration and reports every problem at once.
func (c Config) Validate() error {
	var problems []string

	if u, err := url.Parse(c.Server.BaseURL); err != nil {
		problems = append(problems, fmt.Sprintf("invalid server.base_url %q: %v", c.Server.BaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("invalid server.base_url scheme %q: must be http or https", u.Scheme))
	}
	if c.Server.Timeout < 100*time.Millisecond || c.Server.Timeout > 5*time.Minute {
		problems = append(problems, fmt.Sprintf("invalid server.timeout %v: must be between 100ms and 5m", c.Server.Timeout))
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("invalid ui.timezone %q: %v", c.UI.Timezone, err))
	}
	if _, err := ledger.ParsePeriod(c.UI.DefaultPeriod); err != nil {
		problems = append(problems, fmt.Sprintf("invalid ui.default_period: %v", err))
	}
	if strings.TrimSpace(c.UI.DateFormat) == "" {
		problems = append(problems, "ui.date_format cannot be empty")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log.level: %v", err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Location resolves ui.timezone.
func (c Config) Location() (*time.Location, error) {
	switch c.UI.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.UI.Timezone)
	}
}

// Period resolves ui.default_period, falling back to monthly.
func (c Config) Period() ledger.Period {
	p, err := ledger.ParsePeriod(c.UI.DefaultPeriod)
	if err != nil {
		return ledger.DefaultPeriod
	}
	return p
}

type fileConfig struct {
	Server struct {
		BaseURL string `toml:"base_url"`
		Timeout string `toml:"timeout"`
	} `toml:"server"`
	UI  UIConfig  `toml:"ui"`
	Log LogConfig `toml:"log"`
}

// WriteDefault writes the built-in configuration to path as TOML. An existing
// file is left alone.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	d := Defaults()
	var fc fileConfig
	fc.Server.BaseURL = d.Server.BaseURL
	fc.Server.Timeout = d.Server.Timeout.String()
	fc.UI = d.UI
	fc.Log = d.Log
	if err := toml.NewEncoder(f).Encode(fc); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
