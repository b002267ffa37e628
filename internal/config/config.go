// Package config loads the cove home directory settings from config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cove/internal/engine"
)

const (
	// HomeEnv overrides the default ~/.cove home directory.
	HomeEnv     = "COVE_HOME"
	DefaultDir  = ".cove"
	FileName    = "config.yaml"
	DefaultUser = "main_user"
)

const defaultConfigYAML = `# cove configuration
version: 1

# Ledger owner. One database holds one user's contracts and progression.
user: main_user

# SQLite file, relative to the cove home directory unless absolute.
database: cove.db

log:
  file: logs/cove.log
  # debug | info | warn | error
  level: info

# When to suggest archiving ignored tasks and when to offer them back.
cold_storage:
  ignore_threshold: 3
  revival_days: 30
  max_daily_revivals: 2
`

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type ColdStorageConfig struct {
	IgnoreThreshold  int `yaml:"ignore_threshold"`
	RevivalDays      int `yaml:"revival_days"`
	MaxDailyRevivals int `yaml:"max_daily_revivals"`
}

// File models config.yaml.
type File struct {
	Version     int               `yaml:"version"`
	User        string            `yaml:"user"`
	Database    string            `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	ColdStorage ColdStorageConfig `yaml:"cold_storage"`
}

// Config is the resolved runtime configuration.
type Config struct {
	// Home is the cove directory; relative paths in File resolve against it.
	Home string
	File File
}

// ResolveHome picks the home directory: explicit flag, then COVE_HOME, then ~/.cove.
func ResolveHome(flag string) (string, error) {
	if h := strings.TrimSpace(flag); h != "" {
		return filepath.Clean(h), nil
	}
	if h := strings.TrimSpace(os.Getenv(HomeEnv)); h != "" {
		return filepath.Clean(h), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, DefaultDir), nil
}

func Default(home string) *Config {
	return &Config{Home: home, File: defaultFile()}
}

func defaultFile() File {
	return File{
		Version:  1,
		User:     DefaultUser,
		Database: "cove.db",
		Log:      LogConfig{File: filepath.Join("logs", "cove.log"), Level: "info"},
		ColdStorage: ColdStorageConfig{
			IgnoreThreshold:  3,
			RevivalDays:      30,
			MaxDailyRevivals: 2,
		},
	}
}

// Load reads home/config.yaml. A missing file yields the defaults.
func Load(home string) (*Config, error) {
	cfg := Default(home)
	path := cfg.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed File
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.File = parsed
	return cfg, nil
}

// WriteDefault creates home and a commented default config.yaml. An existing
// file is left alone; created reports whether one was written.
func WriteDefault(home string) (created bool, err error) {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return false, fmt.Errorf("config: create %s: %w", home, err)
	}
	path := filepath.Join(home, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}

func (f *File) applyDefaults() {
	def := defaultFile()
	if f.Version == 0 {
		f.Version = def.Version
	}
	f.User = strings.TrimSpace(f.User)
	if f.User == "" {
		f.User = def.User
	}
	if strings.TrimSpace(f.Database) == "" {
		f.Database = def.Database
	}
	if strings.TrimSpace(f.Log.File) == "" {
		f.Log.File = def.Log.File
	}
	f.Log.Level = strings.ToLower(strings.TrimSpace(f.Log.Level))
	if f.Log.Level == "" {
		f.Log.Level = def.Log.Level
	}
	if f.ColdStorage == (ColdStorageConfig{}) {
		f.ColdStorage = def.ColdStorage
	}
}

func (f File) validate() error {
	if f.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	switch f.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if f.ColdStorage.IgnoreThreshold < 0 || f.ColdStorage.RevivalDays < 0 || f.ColdStorage.MaxDailyRevivals < 0 {
		return fmt.Errorf("cold_storage values must not be negative")
	}
	return nil
}

func (c *Config) Path() string {
	return filepath.Join(c.Home, FileName)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Home, p)
}

func (c *Config) DBPath() string {
	return c.resolve(c.File.Database)
}

func (c *Config) LogPath() string {
	return c.resolve(c.File.Log.File)
}

func (c *Config) User() string {
	return c.File.User
}

func (c *Config) ColdStoragePolicy() engine.ColdStoragePolicy {
	cs := c.File.ColdStorage
	return engine.ColdStoragePolicy{
		IgnoreThreshold:    cs.IgnoreThreshold,
		MinRevivalInterval: time.Duration(cs.RevivalDays) * 24 * time.Hour,
		MaxDailyRevivals:   cs.MaxDailyRevivals,
	}
}
