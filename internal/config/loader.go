package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/HamStudy/feedview/internal/components/performance"
	"github.com/HamStudy/feedview/internal/components/style"
	"github.com/HamStudy/feedview/internal/components/virtual"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// FileName is the name of the config file inside the config directory
const FileName = "config.yaml"

// Source kinds a feed can be read from
const (
	SourceGenerated = "generated"
	SourceFixture   = "fixture"
)

// ReloadDelay is the quiet period after a config file change before it is
// reloaded. Editors often write a file in several steps.
const ReloadDelay = 200 * time.Millisecond

// Config represents the main configuration structure
type Config struct {
	Version        string                `yaml:"version"`
	Virtualization *VirtualizationConfig `yaml:"virtualization"`
	Scheduler      *SchedulerConfig      `yaml:"scheduler"`
	Feeds          []*FeedConfig         `yaml:"feeds"`
	Restoration    *RestorationConfig    `yaml:"restoration"`
	Settings       *Settings             `yaml:"settings"`
}

// VirtualizationConfig holds the list layout parameters. Heights are in
// terminal lines.
type VirtualizationConfig struct {
	EstimatedHeight int     `yaml:"estimatedHeight"`
	Overscan        *int    `yaml:"overscan"`
	ItemSpacing     int     `yaml:"itemSpacing"`
	PrefetchRatio   float64 `yaml:"prefetchRatio"`
	HeightCacheSize int     `yaml:"heightCacheSize"`
	EdgeThreshold   int     `yaml:"edgeThreshold"`
}

// SchedulerConfig defines the update scheduling windows
type SchedulerConfig struct {
	ThrottleInterval time.Duration `yaml:"throttleInterval"`
	DebounceDelay    time.Duration `yaml:"debounceDelay"`
}

// FeedConfig defines one feed tab
type FeedConfig struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"` // generated, fixture
	// Path is the fixture file for fixture feeds
	Path     string `yaml:"path"`
	PageSize int    `yaml:"pageSize"`

	// Generated feeds only
	Seed            int64         `yaml:"seed"`
	Count           int           `yaml:"count"`
	PublishInterval time.Duration `yaml:"publishInterval"`
	Latency         time.Duration `yaml:"latency"`
}

// RestorationConfig defines where scroll positions are persisted
type RestorationConfig struct {
	Path string `yaml:"path"`
}

// Settings defines user preferences
type Settings struct {
	Markdown     bool   `yaml:"markdown"`
	Theme        string `yaml:"theme"`
	GlamourStyle string `yaml:"glamourStyle"`
}

// VirtualConfig converts the virtualization section to list layout parameters
func (c *Config) VirtualConfig() virtual.Config {
	cfg := virtual.DefaultConfig()
	v := c.Virtualization
	if v == nil {
		return cfg
	}
	if v.EstimatedHeight > 0 {
		cfg.EstimatedHeight = v.EstimatedHeight
	}
	if v.Overscan != nil {
		cfg.Overscan = *v.Overscan
	}
	cfg.ItemSpacing = v.ItemSpacing
	if v.PrefetchRatio > 0 {
		cfg.PrefetchRatio = v.PrefetchRatio
	}
	if v.HeightCacheSize > 0 {
		cfg.HeightCacheSize = v.HeightCacheSize
	}
	return cfg
}

// Feed returns the feed called name
func (c *Config) Feed(name string) *FeedConfig {
	for _, f := range c.Feeds {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FeedNames returns the configured feed names in order
func (c *Config) FeedNames() []string {
	names := make([]string, len(c.Feeds))
	for i, f := range c.Feeds {
		names[i] = f.Name
	}
	return names
}

// Loader handles configuration loading and management
type Loader struct {
	configDir string
	user      *Config
	merged    *Config
	mu        sync.RWMutex
}

// NewLoader creates a new configuration loader
func NewLoader(configDir string) *Loader {
	if configDir == "" {
		configDir = DefaultDir()
	}

	return &Loader{
		configDir: configDir,
	}
}

// DefaultDir returns ~/.config/feedview
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "feedview")
}

// Dir returns the config directory
func (l *Loader) Dir() string {
	return l.configDir
}

// Path returns the config file path
func (l *Loader) Path() string {
	return filepath.Join(l.configDir, FileName)
}

// Load loads the configuration from disk. A missing file leaves the
// defaults in place.
func (l *Loader) Load() error {
	var user *Config
	if _, err := os.Stat(l.Path()); err == nil {
		user, err = l.LoadFile(l.Path())
		if err != nil {
			return fmt.Errorf("failed to load user config: %w", err)
		}
	}

	merged := mergeConfigs(getDefaultConfig(), user)
	if err := validateConfig(merged); err != nil {
		return fmt.Errorf("invalid config %s: %w", l.Path(), err)
	}

	l.mu.Lock()
	l.user = user
	l.merged = merged
	l.mu.Unlock()
	return nil
}

// LoadFile loads a specific configuration file
func (l *Loader) LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseConfig(file)
}

// LoadString loads configuration from a string
func (l *Loader) LoadString(content string) (*Config, error) {
	return parseConfig(strings.NewReader(content))
}

// parseConfig parses configuration from a reader
func parseConfig(r io.Reader) (*Config, error) {
	var config Config
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // Strict parsing

	if err := decoder.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return &config, nil
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// validateConfig fills per-feed defaults and reports every problem at once
func validateConfig(config *Config) error {
	var errs []error

	if v := config.Virtualization; v != nil {
		if v.EstimatedHeight <= 0 {
			errs = append(errs, fmt.Errorf("virtualization.estimatedHeight must be positive, got %d", v.EstimatedHeight))
		}
		if v.Overscan != nil && *v.Overscan < 0 {
			errs = append(errs, fmt.Errorf("virtualization.overscan must not be negative, got %d", *v.Overscan))
		}
		if v.ItemSpacing < 0 {
			errs = append(errs, fmt.Errorf("virtualization.itemSpacing must not be negative, got %d", v.ItemSpacing))
		}
		if v.PrefetchRatio < 0 {
			errs = append(errs, fmt.Errorf("virtualization.prefetchRatio must not be negative, got %g", v.PrefetchRatio))
		}
		if v.HeightCacheSize < 0 {
			errs = append(errs, fmt.Errorf("virtualization.heightCacheSize must not be negative, got %d", v.HeightCacheSize))
		}
		if v.EdgeThreshold < 0 {
			errs = append(errs, fmt.Errorf("virtualization.edgeThreshold must not be negative, got %d", v.EdgeThreshold))
		}
	}

	if s := config.Scheduler; s != nil {
		if s.ThrottleInterval < 0 {
			errs = append(errs, fmt.Errorf("scheduler.throttleInterval must not be negative, got %s", s.ThrottleInterval))
		}
		if s.DebounceDelay < 0 {
			errs = append(errs, fmt.Errorf("scheduler.debounceDelay must not be negative, got %s", s.DebounceDelay))
		}
	}

	if len(config.Feeds) == 0 {
		errs = append(errs, fmt.Errorf("at least one feed must be configured"))
	}
	seen := make(map[string]bool, len(config.Feeds))
	for i, feed := range config.Feeds {
		if feed == nil {
			errs = append(errs, fmt.Errorf("feeds[%d]: empty entry", i))
			continue
		}
		if feed.Name == "" {
			errs = append(errs, fmt.Errorf("feeds[%d]: feed must have a name", i))
		} else if seen[feed.Name] {
			errs = append(errs, fmt.Errorf("feeds[%d]: duplicate feed name %q", i, feed.Name))
		}
		seen[feed.Name] = true

		if feed.Source == "" {
			feed.Source = SourceGenerated
		}
		switch feed.Source {
		case SourceGenerated:
			if feed.Count < 0 {
				errs = append(errs, fmt.Errorf("feed %s: count must not be negative", feed.Name))
			}
			if feed.PublishInterval < 0 {
				errs = append(errs, fmt.Errorf("feed %s: publishInterval must not be negative", feed.Name))
			}
		case SourceFixture:
			if feed.Path == "" {
				errs = append(errs, fmt.Errorf("feed %s: fixture feeds need a path", feed.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("feed %s: unknown source %q", feed.Name, feed.Source))
		}
		if feed.PageSize < 0 {
			errs = append(errs, fmt.Errorf("feed %s: pageSize must not be negative", feed.Name))
		}
	}

	if config.Settings != nil && config.Settings.Theme != "" {
		if _, err := style.ThemeByName(config.Settings.Theme); err != nil {
			errs = append(errs, fmt.Errorf("settings.theme: %w", err))
		}
	}

	return utilerrors.NewAggregate(errs)
}

// mergeConfigs merges user config over defaults. Scalar fields override
// only when set; a non-empty feed list replaces the default feeds.
func mergeConfigs(defaults, user *Config) *Config {
	if user == nil {
		return defaults
	}

	merged := defaults
	if user.Version != "" {
		merged.Version = user.Version
	}

	if v := user.Virtualization; v != nil {
		d := merged.Virtualization
		if v.EstimatedHeight != 0 {
			d.EstimatedHeight = v.EstimatedHeight
		}
		if v.Overscan != nil {
			overscan := *v.Overscan
			d.Overscan = &overscan
		}
		if v.ItemSpacing != 0 {
			d.ItemSpacing = v.ItemSpacing
		}
		if v.PrefetchRatio != 0 {
			d.PrefetchRatio = v.PrefetchRatio
		}
		if v.HeightCacheSize != 0 {
			d.HeightCacheSize = v.HeightCacheSize
		}
		if v.EdgeThreshold != 0 {
			d.EdgeThreshold = v.EdgeThreshold
		}
	}

	if s := user.Scheduler; s != nil {
		if s.ThrottleInterval != 0 {
			merged.Scheduler.ThrottleInterval = s.ThrottleInterval
		}
		if s.DebounceDelay != 0 {
			merged.Scheduler.DebounceDelay = s.DebounceDelay
		}
	}

	if len(user.Feeds) > 0 {
		merged.Feeds = make([]*FeedConfig, len(user.Feeds))
		for i, f := range user.Feeds {
			if f != nil {
				copied := *f
				f = &copied
			}
			merged.Feeds[i] = f
		}
	}

	if user.Restoration != nil && user.Restoration.Path != "" {
		merged.Restoration.Path = user.Restoration.Path
	}

	// Override settings
	if user.Settings != nil {
		settings := *user.Settings
		if settings.Theme == "" {
			settings.Theme = merged.Settings.Theme
		}
		if settings.GlamourStyle == "" {
			settings.GlamourStyle = merged.Settings.GlamourStyle
		}
		merged.Settings = &settings
	}

	return merged
}

// Get returns the current configuration
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.merged != nil {
		return l.merged
	}
	return getDefaultConfig()
}

// RestorationPath returns the file scroll positions are persisted to
func (l *Loader) RestorationPath() string {
	if p := l.Get().Restoration.Path; p != "" {
		return p
	}
	return filepath.Join(l.configDir, "state.json")
}

// Save saves the current configuration to disk
func (l *Loader) Save() error {
	l.mu.RLock()
	config := l.user
	if config == nil {
		config = l.merged
	}
	l.mu.RUnlock()

	if config == nil {
		return fmt.Errorf("no configuration to save")
	}

	// Ensure config directory exists
	if err := os.MkdirAll(l.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(l.Path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// SaveSettings stores settings in the user config and writes it to disk
func (l *Loader) SaveSettings(settings Settings) error {
	l.mu.Lock()
	if l.user == nil {
		l.user = &Config{Version: "1.0.0"}
	}
	l.user.Settings = &settings
	l.merged = mergeConfigs(getDefaultConfig(), l.user)
	l.mu.Unlock()

	return l.Save()
}

// Watch reloads the config file whenever it changes and calls fn with the
// new configuration. A file that fails to load is logged and the previous
// configuration stays active. Watch returns once the watcher is running; it
// stops when ctx is done.
func (l *Loader) Watch(ctx context.Context, fn func(*Config)) error {
	if err := os.MkdirAll(l.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory; editors replace files by renaming over them.
	if err := watcher.Add(l.configDir); err != nil {
		watcher.Close()
		return err
	}

	reload := performance.NewDebouncer(ReloadDelay, func() {
		if err := l.Load(); err != nil {
			log.Printf("config: reload failed: %v", err)
			return
		}
		fn(l.Get())
	})

	go func() {
		defer watcher.Close()
		defer reload.Cancel()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != l.Path() {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					reload.Trigger()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config: watcher error: %v", err)
			}
		}
	}()

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	overscan := 3
	return &Config{
		Version: "1.0.0",
		Virtualization: &VirtualizationConfig{
			EstimatedHeight: 6,
			Overscan:        &overscan,
			ItemSpacing:     0,
			PrefetchRatio:   1.0,
			HeightCacheSize: virtual.DefaultHeightCacheSize,
			EdgeThreshold:   5,
		},
		Scheduler: &SchedulerConfig{
			ThrottleInterval: performance.DefaultThrottleInterval,
			DebounceDelay:    performance.DefaultDebounceDelay,
		},
		Feeds: []*FeedConfig{
			{Name: "home", Source: SourceGenerated, Seed: 1, Count: 400, PublishInterval: 20 * time.Second},
			{Name: "mentions", Source: SourceGenerated, Seed: 2, Count: 60},
		},
		Restoration: &RestorationConfig{},
		Settings: &Settings{
			Theme:        "default",
			GlamourStyle: "auto",
		},
	}
}
