// Package config loads Furtherance settings from a YAML file, keeps them
// current while the file is edited, and locates the per-user data directory.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/r3pll/Furtherance/internal/autosave"
)

// Setting keys.
const (
	KeyPomodoro     = "pomodoro"
	KeyPomodoroTime = "pomodoro-time"
	KeyAutosave     = "autosave"
	KeyAutosaveTime = "autosave-time"
	KeyNotifyOfIdle = "notify-of-idle"
	KeyIdleTime     = "idle-time"
	KeyShowSeconds  = "show-seconds"
	KeyDatabase     = "database"
)

const appName = "furtherance"

var ErrUnknownKey = errors.New("unknown setting")

// defaults returns every known key with its default value. The value's type
// decides how Set parses input for that key.
func defaults(dataDir string) map[string]any {
	return map[string]any{
		KeyPomodoro:     false,
		KeyPomodoroTime: 25,
		KeyAutosave:     false,
		KeyAutosaveTime: 5,
		KeyNotifyOfIdle: true,
		KeyIdleTime:     6,
		KeyShowSeconds:  true,
		KeyDatabase:     filepath.Join(dataDir, appName+".db"),
	}
}

// Keys lists the known setting keys in sorted order.
func Keys() []string {
	d := defaults("")
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DataDir returns $XDG_DATA_HOME/furtherance or ~/.local/share/furtherance.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/furtherance or ~/.config/furtherance.
func ConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName), nil
}

// DefaultPath is the settings file used when none is given on the command line.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// AutosavePath is where the running task's recovery file lives.
func AutosavePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return autosave.DefaultPath(dir), nil
}

// Settings is safe for concurrent use. Reads come from a snapshot that is
// replaced whenever the file changes on disk.
type Settings struct {
	v        *viper.Viper
	log      *log.Logger
	defaults map[string]any

	mu   sync.RWMutex
	snap map[string]any
}

// Load reads the settings file at path, creating it with defaults when it
// does not exist yet. An empty path means DefaultPath().
func Load(path string, logger *log.Logger) (*Settings, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	s := &Settings{v: v, log: logger, defaults: defaults(dataDir)}
	for k, val := range s.defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		logger.Info("Config file not found; creating one with default values", "path", path)
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("create config file: %w", err)
		}
	}

	s.refresh()
	return s, nil
}

func (s *Settings) refresh() {
	snap := make(map[string]any, len(s.defaults))
	for k := range s.defaults {
		snap[k] = s.v.Get(k)
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *Settings) get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap[key]
}

// GetBool returns false for unknown keys and values that are not booleans.
func (s *Settings) GetBool(key string) bool {
	return cast.ToBool(s.get(key))
}

// GetInt returns 0 for unknown keys and values that are not integers.
func (s *Settings) GetInt(key string) int {
	return cast.ToInt(s.get(key))
}

func (s *Settings) GetString(key string) string {
	return cast.ToString(s.get(key))
}

// Get returns the display form of a setting.
func (s *Settings) Get(key string) (string, error) {
	if _, ok := s.defaults[key]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return s.GetString(key), nil
}

// Set parses value according to the key's type and writes it to the file.
func (s *Settings) Set(key, value string) error {
	def, ok := s.defaults[key]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}

	var parsed any
	var err error
	switch def.(type) {
	case bool:
		parsed, err = cast.ToBoolE(value)
	case int:
		var n int
		n, err = cast.ToIntE(value)
		if err == nil && n < 0 {
			err = errors.New("must not be negative")
		}
		parsed = n
	default:
		parsed = value
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}

	s.v.Set(key, parsed)
	if err := s.v.WriteConfig(); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	s.refresh()
	s.log.Info("Setting changed", "key", key, "value", parsed)
	return nil
}

func (s *Settings) Path() string {
	return s.v.ConfigFileUsed()
}

// Watch reloads the settings whenever the file changes and then calls
// onChange, which runs on the watcher's goroutine.
func (s *Settings) Watch(onChange func()) {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		s.refresh()
		s.log.Debug("Config reloaded", "file", e.Name, "op", e.Op.String())
		if onChange != nil {
			onChange()
		}
	})
	s.v.WatchConfig()
}
