package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Settings is the full on-disk configuration.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Database DatabaseSettings `json:"database"`
	Logging  LoggingSettings  `json:"logging"`
	Metadata MetadataSettings `json:"metadata"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	ListenAddr string `json:"listenAddr"`
}

// DatabaseSettings configures the SQLite store.
type DatabaseSettings struct {
	Path string `json:"path"`
}

// LoggingSettings configures optional rotating file output. An empty File
// keeps logging on stderr.
type LoggingSettings struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMb,omitempty"`
	MaxBackups int    `json:"maxBackups,omitempty"`
}

// MetadataSettings configures the enrichment providers. Base URLs default to
// the public APIs and exist mainly so tests can point clients elsewhere.
type MetadataSettings struct {
	TMDBAPIKey     string `json:"tmdbApiKey,omitempty"`
	TMDBBaseURL    string `json:"tmdbBaseUrl,omitempty"`
	OMDBAPIKey     string `json:"omdbApiKey,omitempty"`
	OMDBBaseURL    string `json:"omdbBaseUrl,omitempty"`
	RAWGAPIKey     string `json:"rawgApiKey,omitempty"`
	RAWGBaseURL    string `json:"rawgBaseUrl,omitempty"`
	JikanBaseURL   string `json:"jikanBaseUrl,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// Defaults returns the settings used when no config file exists yet.
func Defaults() Settings {
	return Settings{
		Server:   ServerSettings{ListenAddr: ":8484"},
		Database: DatabaseSettings{Path: "data/mediashelf.db"},
		Logging:  LoggingSettings{MaxSizeMB: 20, MaxBackups: 3},
		Metadata: MetadataSettings{
			TMDBBaseURL:    "https://api.themoviedb.org/3",
			OMDBBaseURL:    "https://www.omdbapi.com",
			RAWGBaseURL:    "https://api.rawg.io/api",
			JikanBaseURL:   "https://api.jikan.moe/v4",
			TimeoutSeconds: 8,
		},
	}
}

// Manager loads and caches the settings file.
type Manager struct {
	fs   afero.Fs
	path string

	mu     sync.RWMutex
	cached *Settings
}

// NewManager creates a manager reading from the OS filesystem.
func NewManager(path string) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), path)
}

// NewManagerWithFs creates a manager on the supplied filesystem.
func NewManagerWithFs(fs afero.Fs, path string) *Manager {
	return &Manager{fs: fs, path: path}
}

// Load returns the current settings, reading the file on first use. A missing
// file yields defaults; a malformed file is an error so a typo does not
// silently reset the configuration.
func (m *Manager) Load() (*Settings, error) {
	m.mu.RLock()
	if m.cached != nil {
		cached := *m.cached
		m.mu.RUnlock()
		return &cached, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil {
		cached := *m.cached
		return &cached, nil
	}

	settings := Defaults()

	data, err := afero.ReadFile(m.fs, m.path)
	switch {
	case os.IsNotExist(err):
		// First run, keep defaults.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", m.path, err)
	default:
		if err := json.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", m.path, err)
		}
	}

	applyDefaults(&settings)
	m.cached = &settings
	loaded := settings
	return &loaded, nil
}

// Save writes the settings back to disk and refreshes the cache.
func (m *Manager) Save(settings Settings) error {
	applyDefaults(&settings)

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(m.path); dir != "" && dir != "." {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := afero.WriteFile(m.fs, m.path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", m.path, err)
	}

	m.mu.Lock()
	m.cached = &settings
	m.mu.Unlock()
	return nil
}

func applyDefaults(settings *Settings) {
	defaults := Defaults()

	if settings.Server.ListenAddr == "" {
		settings.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if settings.Database.Path == "" {
		settings.Database.Path = defaults.Database.Path
	}
	if settings.Logging.MaxSizeMB <= 0 {
		settings.Logging.MaxSizeMB = defaults.Logging.MaxSizeMB
	}
	if settings.Logging.MaxBackups <= 0 {
		settings.Logging.MaxBackups = defaults.Logging.MaxBackups
	}
	if settings.Metadata.TMDBBaseURL == "" {
		settings.Metadata.TMDBBaseURL = defaults.Metadata.TMDBBaseURL
	}
	if settings.Metadata.OMDBBaseURL == "" {
		settings.Metadata.OMDBBaseURL = defaults.Metadata.OMDBBaseURL
	}
	if settings.Metadata.RAWGBaseURL == "" {
		settings.Metadata.RAWGBaseURL = defaults.Metadata.RAWGBaseURL
	}
	if settings.Metadata.JikanBaseURL == "" {
		settings.Metadata.JikanBaseURL = defaults.Metadata.JikanBaseURL
	}
	if settings.Metadata.TimeoutSeconds <= 0 {
		settings.Metadata.TimeoutSeconds = defaults.Metadata.TimeoutSeconds
	}
}
