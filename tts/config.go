package tts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	homedir "github.com/mitchellh/go-homedir"
)

// EngineConfig is the persisted per-backend default selection. It is
// produced by the external configuration tool and consumed read-only
// here: the dispatch core never writes it. A nil field means "no
// default configured" and makes that backend unselectable implicitly.
type EngineConfig struct {
	VoicevoxDefaultSpeaker *int    `json:"voicevox_default_speaker"`
	AivisDefaultSpeaker    *int    `json:"aivis_default_speaker"`
	MacosDefaultVoice      *string `json:"macos_default_voice"`
}

// DefaultConfigPath returns ~/speak-mcp/config.json.
func DefaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("unable to locate home directory: %w", err)
	}
	return filepath.Join(home, "speak-mcp", "config.json"), nil
}

// ResolveConfigPath picks the engine config file to use: the home
// location first, then a config.json next to the executable. When
// neither exists the home path is returned so a missing file reads as
// safe defaults.
func ResolveConfigPath() (string, error) {
	homePath, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	exe, err := os.Executable()
	if err == nil {
		local := filepath.Join(filepath.Dir(exe), "config.json")
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}
	return homePath, nil
}

// LoadEngineConfig reads the flat three-key JSON config file. A missing
// file yields the zero config (all defaults null); a file that exists
// but cannot be parsed is an error, fatal at startup.
func LoadEngineConfig(path string) (EngineConfig, error) {
	var cfg EngineConfig

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("unable to read engine config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("corrupt engine config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigStore holds the current EngineConfig as an immutable snapshot.
// Dispatch reads the snapshot once per request; the only write paths
// are the initial load and an explicit reload (manual or via Watch).
type ConfigStore struct {
	path string

	mu  sync.RWMutex
	cfg EngineConfig
}

// NewConfigStore loads the config at path once. The load error is
// returned as-is so callers can treat a corrupt file as fatal.
func NewConfigStore(path string) (*ConfigStore, error) {
	cfg, err := LoadEngineConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigStore{path: path, cfg: cfg}, nil
}

// Path returns the file this store reads from.
func (s *ConfigStore) Path() string { return s.path }

// Snapshot returns the current configuration by value. The caller can
// hold it for the request's lifetime without further locking.
func (s *ConfigStore) Snapshot() EngineConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Reload re-reads the file and swaps the snapshot. A parse failure
// leaves the previous snapshot in place.
func (s *ConfigStore) Reload() error {
	cfg, err := LoadEngineConfig(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// watchDebounce coalesces bursts of fsnotify events; editors tend to
// fire several per save.
const watchDebounce = 300 * time.Millisecond

// Watch reloads the store whenever the config file changes on disk.
// It watches the parent directory so the external configuration tool's
// rename-into-place writes are seen. The returned stop function shuts
// the watcher down.
func (s *ConfigStore) Watch() (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create config watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("unable to create config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("unable to watch %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() {
					if err := s.Reload(); err != nil {
						log.Warn("Engine config reload failed, keeping previous snapshot", "path", s.path, "err", err)
						return
					}
					log.Info("Engine config reloaded", "path", s.path)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Config watcher error", "err", err)
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
