package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Cache struct {
	appsDir string
	cache   map[string]*Config
	mu      sync.RWMutex
}

func NewCache(appsDir string) *Cache {
	return &Cache{
		appsDir: appsDir,
		cache:   make(map[string]*Config),
	}
}

func (c *Cache) Run() error {
	if _, err := os.Stat(c.appsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.appsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		appName := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := c.LoadConfig(appName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "app", appName, "enabled", config.Settings.Enabled, "check_interval", config.Settings.CheckInterval)
	}

	return nil
}

func (c *Cache) LoadConfig(appName string) (*Config, error) {
	configFile := c.getConfigFilePath(appName)
	appConfig, err := c.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set app name from parameter
	appConfig.Name = appName

	if err := c.validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[appConfig.Name] = appConfig

	return appConfig, nil
}

func (c *Cache) GetConfig(appName string) (*Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	appConfig, ok := c.cache[appName]
	if !ok {
		return nil, fmt.Errorf("app config with name '%s' not found", appName)
	}
	return appConfig, nil
}

func (c *Cache) GetConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(c.cache))
	for k, v := range c.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (c *Cache) GetEnabledConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range c.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (c *Cache) GetConfigCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *Cache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var appConfig Config
	if err := yaml.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if appConfig.Settings.CheckInterval == 0 {
		appConfig.Settings.CheckInterval = 3600
	}
	if appConfig.Settings.Timeout == 0 {
		appConfig.Settings.Timeout = 30
	}

	return &appConfig, nil
}

func (c *Cache) validateConfig(appConfig *Config) error {
	if appConfig == nil {
		return fmt.Errorf("appConfig is nil")
	}

	requiredFields := map[string]string{
		"app name":            appConfig.Name,
		"appcast URL":         appConfig.URL,
		"application version": appConfig.Version,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"check interval": appConfig.Settings.CheckInterval,
		"timeout":        appConfig.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (c *Cache) getConfigFilePath(appName string) string {
	return filepath.Join(c.appsDir, appName+".yml")
}
