package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
url: "https://example.com/appcast.xml"
version: "1.4.2"

settings:
  enabled: true
  check_interval: 1800
  timeout: 15
  extract_notes: true
`

	err := os.WriteFile(filepath.Join(tempDir, "myapp.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewCache(tempDir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if cache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 config, got %d", cache.GetConfigCount())
	}

	appConfig, err := cache.GetConfig("myapp")
	if err != nil {
		t.Fatal(err)
	}

	if appConfig.Name != "myapp" {
		t.Errorf("Expected name 'myapp', got '%s'", appConfig.Name)
	}
	if appConfig.URL != "https://example.com/appcast.xml" {
		t.Errorf("Expected URL 'https://example.com/appcast.xml', got '%s'", appConfig.URL)
	}
	if appConfig.Version != "1.4.2" {
		t.Errorf("Expected version '1.4.2', got '%s'", appConfig.Version)
	}
	if appConfig.Settings.CheckInterval != 1800 {
		t.Errorf("Expected check interval 1800, got %d", appConfig.Settings.CheckInterval)
	}
	if !appConfig.Settings.ExtractNotes {
		t.Error("Expected extract_notes to be enabled")
	}
}

func TestCacheLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
url: "https://example.com/appcast.xml"
version: "1.0"

settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "minimal.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewCache(tempDir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	appConfig, err := cache.GetConfig("minimal")
	if err != nil {
		t.Fatal(err)
	}

	if appConfig.Settings.CheckInterval != 3600 {
		t.Errorf("Expected default check interval 3600, got %d", appConfig.Settings.CheckInterval)
	}
	if appConfig.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", appConfig.Settings.Timeout)
	}
}

func TestCacheRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing string
	}{
		{"missing url", "version: \"1.0\"\n", "appcast URL"},
		{"missing version", "url: \"https://example.com/appcast.xml\"\n", "application version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()

			err := os.WriteFile(filepath.Join(tempDir, "bad.yml"), []byte(tt.content), 0644)
			if err != nil {
				t.Fatal(err)
			}

			cache := NewCache(tempDir)
			err = cache.Run()
			if err == nil {
				t.Fatal("Expected an error, got none")
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("Expected error to mention %q, got: %v", tt.missing, err)
			}
		})
	}
}

func TestCacheEnabledConfigs(t *testing.T) {
	tempDir := t.TempDir()

	enabled := `
url: "https://example.com/a.xml"
version: "1.0"
settings:
  enabled: true
`
	disabled := `
url: "https://example.com/b.xml"
version: "1.0"
settings:
  enabled: false
`

	if err := os.WriteFile(filepath.Join(tempDir, "a.yml"), []byte(enabled), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "b.yml"), []byte(disabled), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewCache(tempDir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if cache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", cache.GetConfigCount())
	}

	enabledConfigs := cache.GetEnabledConfigs()
	if len(enabledConfigs) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabledConfigs))
	}
	if _, ok := enabledConfigs["a"]; !ok {
		t.Error("Expected 'a' to be enabled")
	}
}

func TestCacheMissingDirectory(t *testing.T) {
	cache := NewCache("/nonexistent/path")
	if err := cache.Run(); err != nil {
		t.Errorf("Expected no error for a missing directory, got: %v", err)
	}
	if cache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got %d", cache.GetConfigCount())
	}
}
