// Package settings persists user preferences as a flat JSON document.
//
// The store keeps the knobs that survive restarts: volume, the
// auto-reconnect toggle, equalizer state and recording preferences.
// A missing file yields defaults, and writes go through a temp file
// plus rename so a crash never leaves a torn document behind.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/funkwelle/funkwelle/pkg/recorder"
)

// Equalizer holds the persisted equalizer state.
type Equalizer struct {
	Enabled bool        `json:"enabled"`
	Preset  string      `json:"preset"`
	Gains   [10]float64 `json:"gains"`
}

// Recording holds the persisted recording preferences. An empty
// Directory means the recorder's default music directory.
type Recording struct {
	Format    string `json:"format"`
	Directory string `json:"directory"`
	Template  string `json:"filename_template"`
}

// Settings is the full preference document.
type Settings struct {
	Volume        int       `json:"volume"`
	AutoReconnect bool      `json:"auto_reconnect"`
	Equalizer     Equalizer `json:"equalizer"`
	Recording     Recording `json:"recording"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		Volume:        80,
		AutoReconnect: true,
		Equalizer: Equalizer{
			Enabled: false,
			Preset:  "flat",
		},
		Recording: Recording{
			Format:   recorder.DefaultFormat,
			Template: recorder.DefaultTemplate,
		},
	}
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "funkwelle", "settings.json"), nil
}

// Store reads and writes the settings document at a fixed path.
type Store struct {
	path string
	log  zerolog.Logger
}

// NewStore creates a store for the given path. An empty path selects
// DefaultPath.
func NewStore(path string, log zerolog.Logger) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &Store{
		path: path,
		log:  log.With().Str("component", "settings").Str("path", path).Logger(),
	}, nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings document. A missing file returns defaults
// without error; an unreadable or malformed file returns defaults
// alongside the error so the caller can keep running.
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Debug().Msg("No settings file, using defaults")
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("failed to read settings: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse settings: %w", err)
	}
	s.log.Debug().Msg("Settings loaded")
	return cfg, nil
}

// Save writes the settings document atomically.
func (s *Store) Save(cfg Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	s.log.Debug().Msg("Settings saved")
	return nil
}
