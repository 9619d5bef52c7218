package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Store persists settings. Load on a store that has never been saved
// returns the defaults.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps settings in a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is the settings file in the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "ema-voice", "settings.yaml"), nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	} else if err != nil {
		return Defaults(), fmt.Errorf("failed to read settings: %w", err)
	}

	loaded := Defaults()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return Defaults(), fmt.Errorf("invalid settings in %s: %w", s.path, err)
	}

	return loaded, nil
}

func (s *FileStore) Save(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in memory only.
type MemoryStore struct {
	mu       sync.Mutex
	settings *Settings
	saves    int
}

func (s *MemoryStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return Defaults(), nil
	}
	return *s.settings, nil
}

func (s *MemoryStore) Save(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Schema returns the JSON schema of the settings file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&Settings{})
	schema.Title = "ema-voice settings"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings schema: %w", err)
	}
	return data, nil
}
