package config

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	m := NewManagerWithFs(afero.NewMemMapFs(), "config.json")

	settings, err := m.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if settings.Server.ListenAddr != ":8484" {
		t.Fatalf("unexpected listen address %q", settings.Server.ListenAddr)
	}
	if settings.Metadata.TimeoutSeconds != 8 {
		t.Fatalf("unexpected default timeout %d", settings.Metadata.TimeoutSeconds)
	}
	if settings.Metadata.JikanBaseURL == "" {
		t.Fatal("expected default provider base URLs")
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte(`{"server":{"listenAddr":":9999"},"metadata":{"tmdbApiKey":"abc"}}`)
	if err := afero.WriteFile(fs, "config.json", content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m := NewManagerWithFs(fs, "config.json")
	settings, err := m.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if settings.Server.ListenAddr != ":9999" {
		t.Fatalf("expected file value to win, got %q", settings.Server.ListenAddr)
	}
	if settings.Metadata.TMDBAPIKey != "abc" {
		t.Fatalf("expected api key from file, got %q", settings.Metadata.TMDBAPIKey)
	}
	if settings.Metadata.TMDBBaseURL == "" || settings.Database.Path == "" {
		t.Fatal("expected defaults to fill unset fields")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "config.json", []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := NewManagerWithFs(fs, "config.json").Load(); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManagerWithFs(fs, "nested/dir/config.json")

	settings := Defaults()
	settings.Metadata.OMDBAPIKey = "omdb-key"
	if err := m.Save(settings); err != nil {
		t.Fatalf("save returned error: %v", err)
	}

	reloaded, err := NewManagerWithFs(fs, "nested/dir/config.json").Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if reloaded.Metadata.OMDBAPIKey != "omdb-key" {
		t.Fatalf("expected saved key to survive, got %q", reloaded.Metadata.OMDBAPIKey)
	}
}

func TestLoadCachesSettings(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManagerWithFs(fs, "config.json")

	first, err := m.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	// Mutating the returned copy must not leak into the cache.
	first.Server.ListenAddr = ":1"

	second, err := m.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if second.Server.ListenAddr != ":8484" {
		t.Fatalf("cache was mutated through a returned copy: %q", second.Server.ListenAddr)
	}
}
