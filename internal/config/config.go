package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/tgienger/stask/internal/bulk"
	"github.com/tgienger/stask/internal/logging"
	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/selection"
	"github.com/tgienger/stask/internal/tasklist"
)

const (
	DefaultConfigFileName = "config.toml"
	appDirName            = "stask"

	// EnvConfigPath overrides the config file location
	EnvConfigPath = "STASK_CONFIG"
)

type Sort struct {
	Key       string `toml:"key"`
	Direction string `toml:"direction"`
	Grouping  string `toml:"grouping"`
}

type Limits struct {
	MaxSelection int `toml:"max_selection"`
	MaxBulk      int `toml:"max_bulk"`
}

// Config mirrors config.toml. Empty paths mean the XDG default location.
type Config struct {
	DBPath         string `toml:"db_path"`
	DefaultFilter  string `toml:"default_filter"`
	SearchDebounce string `toml:"search_debounce"`
	LogLevel       string `toml:"log_level"`
	LogFile        string `toml:"log_file"`
	Sort           Sort   `toml:"sort"`
	Limits         Limits `toml:"limits"`
}

// Settings is a Config with every value parsed
type Settings struct {
	DBPath         string
	Filter         models.StatusFilter
	Sort           models.TaskSort
	SearchDebounce time.Duration
	LogLevel       string
	LogFile        string
	MaxSelection   int
	MaxBulk        int
}

// Path returns the config file location: $STASK_CONFIG, then
// $XDG_CONFIG_HOME/stask/config.toml, then ~/.config/stask/config.toml.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName), nil
}

// LoadOrCreate reads the config at path, writing the defaults there first
// if the file does not exist.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	return Load(path)
}

// Load reads the config at path. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := cfg.Parse(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates every value and converts it to its typed form
func (c Config) Parse() (Settings, error) {
	s := Settings{
		DBPath:       c.DBPath,
		LogLevel:     c.LogLevel,
		LogFile:      c.LogFile,
		MaxSelection: c.Limits.MaxSelection,
		MaxBulk:      c.Limits.MaxBulk,
	}
	var err error
	if s.Filter, err = models.ParseStatusFilter(c.DefaultFilter); err != nil {
		return s, fmt.Errorf("default_filter: %w", err)
	}
	if s.Sort.Key, err = models.ParseSortKey(c.Sort.Key); err != nil {
		return s, fmt.Errorf("sort.key: %w", err)
	}
	if s.Sort.Direction, err = models.ParseSortDirection(c.Sort.Direction); err != nil {
		return s, fmt.Errorf("sort.direction: %w", err)
	}
	if s.Sort.Grouping, err = models.ParseCompletedGrouping(c.Sort.Grouping); err != nil {
		return s, fmt.Errorf("sort.grouping: %w", err)
	}

	s.SearchDebounce = tasklist.DefaultDebounce
	if c.SearchDebounce != "" {
		d, err := time.ParseDuration(c.SearchDebounce)
		if err != nil {
			return s, fmt.Errorf("search_debounce: %w", err)
		}
		if d < 0 {
			return s, fmt.Errorf("search_debounce: must not be negative, got %s", d)
		}
		s.SearchDebounce = d
	}

	if _, _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return s, fmt.Errorf("log_level: %w", err)
	}

	if s.MaxSelection <= 0 {
		s.MaxSelection = selection.DefaultMaxSize
	}
	if s.MaxBulk <= 0 {
		s.MaxBulk = bulk.DefaultMaxSize
	}
	return s, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		DefaultFilter:  "all",
		SearchDebounce: tasklist.DefaultDebounce.String(),
		LogLevel:       "info",
		Sort: Sort{
			Key:       models.SortByCreatedAt.String(),
			Direction: models.Descending.String(),
			Grouping:  models.GroupNone.String(),
		},
		Limits: Limits{
			MaxSelection: selection.DefaultMaxSize,
			MaxBulk:      bulk.DefaultMaxSize,
		},
	}
}
