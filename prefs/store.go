package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// The different preference store errors.
var (
	ErrUnknownKey   = errors.New("unknown preference key")
	ErrInvalidValue = errors.New("invalid preference value")
)

// Store holds the preferences in memory and writes them
// to disk on every mutation.
type Store struct {
	path   string
	logger *slog.Logger

	prefs   Preferences
	written []byte
	mu      sync.Mutex

	watcher *file.File
}

// Open loads the preferences from the provided path.
// A missing file yields the defaults, and an unreadable or corrupt file
// yields the defaults with a warning logged. It never fails.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{path: path, logger: logger}
	s.prefs = s.load()

	return s
}

// Path returns the path to the preference file.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current preferences.
func (s *Store) Snapshot() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.prefs.Clone()
}

// Get returns the value of the preference with the provided key.
func (s *Store) Get(key Key) (any, bool) {
	p := s.Snapshot()

	if value, ok := p.Bool(key); ok {
		return value, true
	}

	switch key {
	case KeyFavoriteDevices:
		return p.FavoriteDevices, true

	case KeyLastWifiNetwork:
		if network, ok := p.LastNetwork(); ok {
			return network, true
		}

		return nil, true

	case KeyReconnectMode:
		return p.ReconnectMode, true
	}

	return nil, false
}

// Set sets the value of the preference with the provided key,
// and saves the preferences.
func (s *Store) Set(key Key, value any) error {
	return s.update(func(p *Preferences) error {
		switch key {
		case KeyFavoriteDevices:
			favorites, ok := value.([]string)
			if !ok {
				return invalidValue(key, value)
			}

			p.FavoriteDevices = slices.Clone(favorites)
			p.normalize()

			return nil

		case KeyLastWifiNetwork:
			switch v := value.(type) {
			case nil:
				p.LastWifiNetwork = nil

			case string:
				p.LastWifiNetwork = &v

			case *string:
				p.LastWifiNetwork = v

			default:
				return invalidValue(key, value)
			}

			return nil

		case KeyReconnectMode:
			switch v := value.(type) {
			case string:
				p.ReconnectMode = ParseReconnectMode(v)

			case ReconnectMode:
				p.ReconnectMode = ParseReconnectMode(string(v))

			default:
				return invalidValue(key, value)
			}

			return nil
		}

		if _, ok := p.Bool(key); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}

		b, ok := value.(bool)
		if !ok {
			return invalidValue(key, value)
		}
		p.setBool(key, b)

		return nil
	})
}

// Toggle inverts a boolean preference and returns the new value.
func (s *Store) Toggle(key Key) (bool, error) {
	var toggled bool

	err := s.update(func(p *Preferences) error {
		value, ok := p.Bool(key)
		if !ok {
			return fmt.Errorf("%w: %s is not a boolean preference", ErrUnknownKey, key)
		}

		toggled = !value
		p.setBool(key, toggled)

		return nil
	})

	return toggled, err
}

// Bool returns the value of a boolean preference.
func (s *Store) Bool(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, _ := s.prefs.Bool(key)

	return value
}

// SetBool sets a boolean preference.
func (s *Store) SetBool(key Key, value bool) error {
	return s.Set(key, value)
}

// ReconnectMode returns the current reconnect mode.
func (s *Store) ReconnectMode() ReconnectMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.prefs.ReconnectMode
}

// SetReconnectMode sets the reconnect mode.
func (s *Store) SetReconnectMode(mode ReconnectMode) error {
	return s.Set(KeyReconnectMode, mode)
}

// LastWirelessNetwork returns the last known wireless network.
func (s *Store) LastWirelessNetwork() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.prefs.LastNetwork()
}

// SetLastWirelessNetwork stores the last known wireless network.
func (s *Store) SetLastWirelessNetwork(name string) error {
	return s.Set(KeyLastWifiNetwork, name)
}

// Favorites returns the favorite device addresses, in insertion order.
func (s *Store) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.prefs.FavoriteDevices)
}

// IsFavorite reports whether the address is a favorite device.
func (s *Store) IsFavorite(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.prefs.IsFavorite(address)
}

// AddFavorite adds a device to the favorites.
// Adding an existing favorite does nothing.
func (s *Store) AddFavorite(address string) error {
	if address == "" {
		return invalidValue(KeyFavoriteDevices, address)
	}

	return s.update(func(p *Preferences) error {
		if !p.IsFavorite(address) {
			p.FavoriteDevices = append(p.FavoriteDevices, address)
		}

		return nil
	})
}

// RemoveFavorite removes a device from the favorites.
func (s *Store) RemoveFavorite(address string) error {
	return s.update(func(p *Preferences) error {
		p.FavoriteDevices = slices.DeleteFunc(p.FavoriteDevices, func(a string) bool {
			return a == address
		})

		return nil
	})
}

// ToggleFavorite adds or removes a device from the favorites,
// and reports whether the device is now a favorite.
func (s *Store) ToggleFavorite(address string) (bool, error) {
	if s.IsFavorite(address) {
		return false, s.RemoveFavorite(address)
	}

	return true, s.AddFavorite(address)
}

// Reload reloads the preferences from disk, and reports whether they changed.
// A file which matches the last write, or which cannot be parsed,
// leaves the current preferences untouched.
func (s *Store) Reload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("cannot reload preferences", "path", s.path, "error", err)
		return false
	}
	if bytes.Equal(data, s.written) {
		return false
	}

	prefs, err := s.parse()
	if err != nil {
		s.logger.Warn("corrupt preferences, keeping current values", "path", s.path, "error", err)
		return false
	}

	s.prefs, s.written = prefs, data

	return true
}

// Watch reloads the preferences whenever the preference file
// is modified externally. onChange, if provided, is called after each reload.
func (s *Store) Watch(onChange func()) error {
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		return nil
	}

	if err := s.ensureFile(); err != nil {
		s.mu.Unlock()
		return err
	}

	s.watcher = file.Provider(s.path)
	watcher := s.watcher
	s.mu.Unlock()

	return watcher.Watch(func(_ any, err error) {
		if err != nil {
			s.logger.Warn("preference watcher stopped", "error", err)
			return
		}

		if s.Reload() && onChange != nil {
			onChange()
		}
	})
}

// Close stops watching the preference file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}

	err := s.watcher.Unwatch()
	s.watcher = nil

	return err
}

// update applies fn to the preferences and saves them.
// The in-memory preferences stay modified even if saving fails.
func (s *Store) update(fn func(p *Preferences) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.prefs.Clone()
	if err := fn(&prefs); err != nil {
		return err
	}
	s.prefs = prefs

	if err := s.save(); err != nil {
		s.logger.Error("cannot save preferences", "path", s.path, "error", err)
		return err
	}

	return nil
}

// load reads the preferences from disk, and merges them with the defaults.
func (s *Store) load() Preferences {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cannot read preferences, using defaults", "path", s.path, "error", err)
		}

		return Defaults()
	}

	prefs, err := s.parse()
	if err != nil {
		s.logger.Warn("corrupt preferences, using defaults", "path", s.path, "error", err)
		return Defaults()
	}
	s.written = data

	return prefs
}

// parse parses the preference file on top of the defaults.
func (s *Store) parse() (Preferences, error) {
	prefs := Defaults()

	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), koanfjson.Parser()); err != nil {
		return prefs, err
	}

	if err := k.UnmarshalWithConf("", &prefs, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return prefs, err
	}
	prefs.normalize()

	return prefs, nil
}

// save writes the preferences to a temporary file, and renames it
// over the preference file so that readers never see a partial write.
// The caller must hold the lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
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
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return err
	}
	s.written = data

	return nil
}

// ensureFile writes the preferences if the file does not exist yet,
// so that it can be watched.
// The caller must hold the lock.
func (s *Store) ensureFile() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}

	return s.save()
}

func invalidValue(key Key, value any) error {
	return fmt.Errorf("%w: %T for %s", ErrInvalidValue, value, key)
}
