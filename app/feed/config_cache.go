package feed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const configExt = ".yml"

// Defaults for settings a feed file leaves out.
const (
	defaultRefreshInterval = 3600
	defaultMaxItems        = 100
	defaultTimeout         = 30
)

// ErrConfigNotFound is returned by GetConfig for names with no loaded file.
var ErrConfigNotFound = errors.New("feed config not found")

// ConfigCache holds one Config per <name>.yml file in feedsDir.
type ConfigCache struct {
	feedsDir string

	mu      sync.RWMutex
	configs map[string]*Config
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		configs:  make(map[string]*Config),
	}
}

// Run (re)reads every feed file. The cache is replaced only when all files
// load, so a broken edit leaves the previous set in place. A missing
// directory yields an empty set.
func (cc *ConfigCache) Run() error {
	files, err := filepath.Glob(filepath.Join(cc.feedsDir, "*"+configExt))
	if err != nil {
		return fmt.Errorf("failed to list feed configs: %w", err)
	}

	loaded := make(map[string]*Config, len(files))
	for _, file := range files {
		feedName := strings.TrimSuffix(filepath.Base(file), configExt)

		feedConfig, err := readConfig(file, feedName)
		if err != nil {
			return err
		}
		loaded[feedName] = feedConfig

		slog.Debug("Configuration loaded", "feed", feedName, "enabled", feedConfig.Settings.Enabled,
			"refresh_interval", feedConfig.Settings.RefreshInterval, "sanitize", feedConfig.Settings.SanitizeEnabled())
	}

	cc.mu.Lock()
	cc.configs = loaded
	cc.mu.Unlock()

	return nil
}

// LoadConfig rereads a single feed file and replaces its cache entry.
func (cc *ConfigCache) LoadConfig(feedName string) (*Config, error) {
	feedConfig, err := readConfig(filepath.Join(cc.feedsDir, feedName+configExt), feedName)
	if err != nil {
		return nil, err
	}

	cc.mu.Lock()
	cc.configs[feedName] = feedConfig
	cc.mu.Unlock()

	return feedConfig, nil
}

func (cc *ConfigCache) GetConfig(feedName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if feedConfig, ok := cc.configs[feedName]; ok {
		return feedConfig, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, feedName)
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return maps.Clone(cc.configs)
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	enabled := cc.GetConfigs()
	maps.DeleteFunc(enabled, func(_ string, c *Config) bool {
		return !c.Settings.Enabled
	})
	return enabled
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.configs)
}

// readConfig decodes one feed file strictly: unknown keys are errors, so a
// misspelled setting does not silently fall back to its default.
func readConfig(path, feedName string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var feedConfig Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&feedConfig); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	feedConfig.Name = feedName
	feedConfig.Settings.applyDefaults()

	if err := feedConfig.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &feedConfig, nil
}

func (s *ConfigSettings) applyDefaults() {
	if s.RefreshInterval == 0 {
		s.RefreshInterval = defaultRefreshInterval
	}
	if s.MaxItems == 0 {
		s.MaxItems = defaultMaxItems
	}
	if s.Timeout == 0 {
		s.Timeout = defaultTimeout
	}
}

// validate reports every problem in the config at once.
func (c *Config) validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, errors.New("url is required"))
	} else if u, err := url.Parse(c.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("url must be an absolute http(s) URL: %q", c.URL))
	}

	if c.Settings.RefreshInterval < 0 {
		errs = append(errs, errors.New("refresh_interval must be non-negative"))
	}
	if c.Settings.MaxItems < 0 {
		errs = append(errs, errors.New("max_items must be non-negative"))
	}
	if c.Settings.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	}

	for i, filter := range c.Filters {
		if _, ok := filterFields[filter.Field]; !ok {
			errs = append(errs, fmt.Errorf("filters[%d]: unknown field %q", i, filter.Field))
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			errs = append(errs, fmt.Errorf("filters[%d]: needs includes or excludes", i))
		}
	}

	return errors.Join(errs...)
}
