// Package session wires the preference store, the radio adapters,
// the reaction engine and the power event source together.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cskr/pubsub/v2"
	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/power"
	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/radio"
	"github.com/darkhz/sleepwatch/update"
	"go.uber.org/atomic"
)

// StartupUpdateDelay is the time to wait after startup before checking for updates.
const StartupUpdateDelay = 3 * time.Second

const (
	reportsTopic = "reports"
	prefsTopic   = "preferences"
)

// Options describes the options for a session.
type Options struct {
	Version string

	PrefsFile   string
	PowerSource string

	WifiInterface string
	Networksetup  string
	Blueutil      string

	CommandTimeout time.Duration
	ConnectTimeout time.Duration
	JoinTimeout    time.Duration
	SettleDelay    time.Duration
	PowerOnDelay   time.Duration

	Logger *slog.Logger
}

// Session holds all the components of a running application.
type Session struct {
	logger *slog.Logger

	prefs      *prefs.Store
	wireless   *radio.Wireless
	shortRange *radio.Bluetooth
	engine     *engine.Engine
	updater    *update.Checker

	center *power.NotificationCenter
	source *power.Source
	bridge power.Bridge

	events       *pubsub.PubSub[string, any]
	eventsClosed bool
	eventsMu     sync.RWMutex

	started atomic.Bool
	stopped atomic.Bool
}

// New returns a new session. It does not start observing power events.
func New(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bridge, err := power.NewBridge(opts.PowerSource)
	if err != nil {
		return nil, err
	}

	s := &Session{
		logger: logger,
		prefs:  prefs.Open(opts.PrefsFile, logger.With("component", "prefs")),
		wireless: radio.NewWireless(radio.Options{
			Path:           opts.Networksetup,
			Interface:      opts.WifiInterface,
			CommandTimeout: opts.CommandTimeout,
			ConnectTimeout: opts.JoinTimeout,
			Logger:         logger.With("component", "wireless"),
		}),
		shortRange: radio.NewBluetooth(radio.Options{
			Path:           opts.Blueutil,
			CommandTimeout: opts.CommandTimeout,
			ConnectTimeout: opts.ConnectTimeout,
			Logger:         logger.With("component", "bluetooth"),
		}),
		updater: update.NewChecker(opts.Version),
		center:  power.NewNotificationCenter(),
		bridge:  bridge,
		events:  pubsub.New[string, any](10),
	}

	s.engine = engine.New(s.wireless, s.shortRange, s.prefs, engine.Options{
		SettleDelay:  opts.SettleDelay,
		PowerOnDelay: opts.PowerOnDelay,
		Logger:       logger.With("component", "engine"),
		OnReport: func(r engine.Report) {
			s.publish(r, reportsTopic)
		},
	})

	s.source = power.NewSource(s.center, s.engine,
		power.WithLogger(logger.With("component", "power")),
		power.WithCompletion(func(name power.Notification, elapsed time.Duration) {
			logger.Debug("power reaction finished", "notification", name.String(), "elapsed", elapsed)
		}),
	)

	return s, nil
}

// Start starts observing power events and watching the preference file.
func (s *Session) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	if err := s.bridge.Start(s.center); err != nil {
		s.started.Store(false)
		return fmt.Errorf("cannot observe power events: %w", err)
	}
	s.source.Start()

	if err := s.prefs.Watch(func() {
		s.publish(s.prefs.Snapshot(), prefsTopic)
	}); err != nil {
		s.logger.Warn("cannot watch the preference file", "path", s.prefs.Path(), "error", err)
	}

	s.logger.Info("session started",
		"prefs", s.prefs.Path(),
		"wireless", s.wireless.Available(),
		"bluetooth", s.shortRange.Available(),
	)

	return nil
}

// Stop stops observing power events and releases all resources.
// Reconnect passes already in flight are not interrupted.
func (s *Session) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}

	if s.started.CompareAndSwap(true, false) {
		s.source.Stop()
		s.bridge.Stop()
	}

	if err := s.prefs.Close(); err != nil {
		s.logger.Warn("cannot stop watching the preference file", "error", err)
	}

	s.center.Close()

	s.eventsMu.Lock()
	s.eventsClosed = true
	s.events.Shutdown()
	s.eventsMu.Unlock()
}

// Preferences returns the preference store.
func (s *Session) Preferences() *prefs.Store {
	return s.prefs
}

// Engine returns the reaction engine.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Wireless returns the wireless LAN adapter.
func (s *Session) Wireless() *radio.Wireless {
	return s.wireless
}

// Bluetooth returns the short-range radio adapter.
func (s *Session) Bluetooth() *radio.Bluetooth {
	return s.shortRange
}

// Updater returns the update checker.
func (s *Session) Updater() *update.Checker {
	return s.updater
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Post posts a power notification, as if it was sent by the system.
func (s *Session) Post(name power.Notification) {
	s.center.Post(name)
}

// Subscription receives session events.
type Subscription struct {
	C chan any

	unsubscribe func()
}

// Unsubscribe stops receiving events.
func (s Subscription) Unsubscribe() {
	s.unsubscribe()
}

// Subscribe subscribes to engine reports (engine.Report), and external
// preference changes (prefs.Preferences).
// The channel of a subscription made after Stop is closed.
func (s *Session) Subscribe() Subscription {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()

	if s.eventsClosed {
		ch := make(chan any)
		close(ch)

		return Subscription{C: ch, unsubscribe: func() {}}
	}

	ch := s.events.Sub(reportsTopic, prefsTopic)

	return Subscription{
		C: ch,
		unsubscribe: func() {
			go func() {
				s.eventsMu.RLock()
				defer s.eventsMu.RUnlock()

				if !s.eventsClosed {
					s.events.Unsub(ch)
				}
			}()
		},
	}
}

// publish publishes an event to the subscribers.
// Events published after Stop are dropped.
func (s *Session) publish(event any, topic string) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()

	if s.eventsClosed {
		return
	}

	s.events.TryPub(event, topic)
}

// CheckUpdateOnStartup waits for the startup delay, and then checks for updates
// if the user enabled it. fn is only called if a check was made.
func (s *Session) CheckUpdateOnStartup(ctx context.Context, fn func(update.Release, error)) {
	go func() {
		select {
		case <-ctx.Done():
			return

		case <-time.After(StartupUpdateDelay):
		}

		if !s.prefs.Bool(prefs.KeyCheckUpdatesOnStartup) {
			return
		}

		release, err := s.updater.Check(ctx)
		if err != nil {
			s.logger.Warn("startup update check failed", "error", err)
		} else if release.HasUpdate {
			s.logger.Info("update available", "version", release.Version, "url", release.DownloadURL)
		}

		fn(release, err)
	}()
}
