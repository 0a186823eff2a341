package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

const DefaultRuntimeSettingsFile = "/app/config/settings.json"

// RuntimeSettings are the viewer preferences editable from the player and
// shared with the terminal follower.
type RuntimeSettings struct {
	AutoScroll   bool   `json:"auto_scroll"`
	ResumeOnLoad bool   `json:"resume_on_load"`
	PurgeCron    string `json:"purge_cron"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile)
}

func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.PurgeCron) == "" {
		return fmt.Errorf("purge_cron is required")
	}
	if _, err := cron.ParseStandard(s.PurgeCron); err != nil {
		return fmt.Errorf("invalid purge_cron: %w", err)
	}
	return nil
}

// RuntimeSettings returns the defaults implied by the environment.
func (c *Config) RuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		AutoScroll:   true,
		ResumeOnLoad: true,
		PurgeCron:    c.Position.PurgeCron,
	}
}

// ApplyRuntimeSettings copies the settings that shadow environment values.
func (c *Config) ApplyRuntimeSettings(s RuntimeSettings) {
	if strings.TrimSpace(s.PurgeCron) != "" {
		c.Position.PurgeCron = s.PurgeCron
	}
}

// LoadRuntimeSettings reads the settings file on top of defaults, so keys
// missing from the file keep their default. A missing file yields the
// defaults and no error.
func LoadRuntimeSettings(path string, defaults RuntimeSettings) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return defaults, err
	}

	settings := defaults
	if err := json.Unmarshal(data, &settings); err != nil {
		return defaults, fmt.Errorf("invalid settings file %s: %w", path, err)
	}
	if strings.TrimSpace(settings.PurgeCron) == "" {
		settings.PurgeCron = defaults.PurgeCron
	}
	return settings, nil
}

// SaveRuntimeSettings validates and atomically replaces the settings file.
func SaveRuntimeSettings(path string, settings RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// writeFileAtomic writes into a temp file next to path and renames it over
// path once flushed.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// RuntimeSettingsStore keeps the current settings in memory and persists
// every accepted update. Listeners run after a successful update.
type RuntimeSettingsStore struct {
	path string

	mu        sync.RWMutex
	current   RuntimeSettings
	listeners []func(RuntimeSettings)
}

func NewRuntimeSettingsStore(path string, initial RuntimeSettings) (*RuntimeSettingsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeSettingsStore{path: path, current: initial}, nil
}

func (s *RuntimeSettingsStore) GetRuntimeSettings() (RuntimeSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *RuntimeSettingsStore) OnUpdate(fn func(RuntimeSettings)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// UpdateRuntimeSettings persists next before it becomes current. Updates are
// serialised so the file always matches the in-memory value.
func (s *RuntimeSettingsStore) UpdateRuntimeSettings(next RuntimeSettings) (RuntimeSettings, error) {
	s.mu.Lock()
	if err := SaveRuntimeSettings(s.path, next); err != nil {
		s.mu.Unlock()
		return RuntimeSettings{}, err
	}
	s.current = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next, nil
}
