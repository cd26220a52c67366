package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the plancourses CLI configuration.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Editor EditorConfig `yaml:"editor"`
	Log    LogConfig    `yaml:"log"`

	// Path is where the config was read from (not serialized)
	Path string `yaml:"-"`
}

// APIConfig locates the academy server.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// EditorConfig tunes the terminal editor.
type EditorConfig struct {
	FilterDebounce time.Duration `yaml:"filter_debounce"`
	DefaultPlan    string        `yaml:"default_plan,omitempty"`
}

// LogConfig selects the slog level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Editor: EditorConfig{
			FilterDebounce: 250 * time.Millisecond,
		},
		Log: LogConfig{Level: "info"},
	}
}

// SearchPaths are tried in order when no explicit path is given.
func SearchPaths() []string {
	paths := []string{"plancourses.yaml", "configs/plancourses.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "academy", "plancourses.yaml"))
	}
	return paths
}

// Load reads the config at path, or the first of SearchPaths when path is empty.
// A missing file yields the defaults; an explicit missing path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	candidates := SearchPaths()
	if path != "" {
		candidates = []string{path}
	}

	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) && path == "" {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		cfg.Path = p
		break
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that the CLI cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Editor.FilterDebounce < 0 {
		return errors.New("editor.filter_debounce cannot be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts Log.Level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
