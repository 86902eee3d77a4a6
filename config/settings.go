package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Settings holds the economy values that can be changed while the
// simulation is running.
type Settings struct {
	EnergyPerFood     float64 `yaml:"energy_per_food"`
	EnergyDecayRate   float64 `yaml:"energy_decay_rate"`
	BulletMissPenalty float64 `yaml:"bullet_miss_penalty"`
	NumFood           int     `yaml:"num_food"`
}

// LoadSettings reads a settings file on top of base. Fields absent from the
// file keep their base value.
func LoadSettings(path string, base Settings) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading settings file: %w", err)
	}
	s := base
	if err := yaml.Unmarshal(data, &s); err != nil {
		return base, fmt.Errorf("parsing settings file: %w", err)
	}
	if s.NumFood < 0 {
		return base, fmt.Errorf("settings num_food must not be negative, got %d", s.NumFood)
	}
	return s, nil
}

// SettingsSource supplies the current runtime settings.
type SettingsSource interface {
	Current() Settings
}

// StaticSettings is a SettingsSource that never changes.
type StaticSettings Settings

// Current returns the settings.
func (s StaticSettings) Current() Settings { return Settings(s) }

// SettingsWatcher reloads a settings file whenever it changes on disk.
type SettingsWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  atomic.Pointer[Settings]
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	onLoad  func(Settings)
}

// NewSettingsWatcher loads path once and prepares a watcher for it.
// base supplies values for fields missing from the file.
func NewSettingsWatcher(path string, base Settings) (*SettingsWatcher, error) {
	s, err := LoadSettings(path, base)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating settings watcher: %w", err)
	}
	sw := &SettingsWatcher{
		path:     filepath.Clean(path),
		watcher:  w,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	sw.current.Store(&s)
	return sw, nil
}

// OnReload registers a callback invoked after each successful reload.
// Must be called before Start.
func (sw *SettingsWatcher) OnReload(fn func(Settings)) {
	sw.onLoad = fn
}

// Current returns the most recently loaded settings.
func (sw *SettingsWatcher) Current() Settings {
	return *sw.current.Load()
}

// Start begins watching. It watches the parent directory so editors that
// replace the file on save are still observed.
func (sw *SettingsWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		return nil
	}
	if err := sw.watcher.Add(filepath.Dir(sw.path)); err != nil {
		return fmt.Errorf("watching settings dir: %w", err)
	}
	sw.running = true
	go sw.run(ctx)
	return nil
}

// Stop stops the watcher and releases its resources.
func (sw *SettingsWatcher) Stop() error {
	sw.mu.Lock()
	wasRunning := sw.running
	sw.running = false
	sw.mu.Unlock()

	if wasRunning {
		close(sw.stopCh)
		<-sw.doneCh
	}
	return sw.watcher.Close()
}

func (sw *SettingsWatcher) run(ctx context.Context) {
	defer close(sw.doneCh)

	var pending bool
	var lastEvent time.Time
	ticker := time.NewTicker(sw.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopCh:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			lastEvent = time.Now()
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("settings watcher error", "error", err)
		case <-ticker.C:
			if pending && time.Since(lastEvent) >= sw.debounce {
				pending = false
				sw.reload()
			}
		}
	}
}

func (sw *SettingsWatcher) reload() {
	s, err := LoadSettings(sw.path, sw.Current())
	if err != nil {
		slog.Error("failed to reload settings", "path", sw.path, "error", err)
		return
	}
	sw.current.Store(&s)
	slog.Info("settings reloaded",
		"energy_per_food", s.EnergyPerFood,
		"energy_decay_rate", s.EnergyDecayRate,
		"bullet_miss_penalty", s.BulletMissPenalty,
		"num_food", s.NumFood,
	)
	if sw.onLoad != nil {
		sw.onLoad(s)
	}
}
