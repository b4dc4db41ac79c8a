package power

import (
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Handler reacts to power notifications.
type Handler interface {
	OnWillSleep()
	OnDidWake()
}

// CompletionFunc is called after a dispatched handler callback returns.
type CompletionFunc func(name Notification, elapsed time.Duration)

// Source observes a notification center and dispatches
// sleep and wake notifications to a handler.
type Source struct {
	center  Center
	handler Handler

	spawn      func(func())
	completion CompletionFunc
	logger     *slog.Logger

	ids     []ObserverID
	running atomic.Bool
	stopped bool
	mu      sync.Mutex
}

// SourceOption is an option for a Source.
type SourceOption func(s *Source)

// WithCompletion sets a function to be called after each handler callback returns.
func WithCompletion(fn CompletionFunc) SourceOption {
	return func(s *Source) {
		s.completion = fn
	}
}

// WithLogger sets the logger for the source.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithSpawner sets the function used to run handler callbacks.
// By default, each callback runs on a new goroutine.
func WithSpawner(spawn func(func())) SourceOption {
	return func(s *Source) {
		s.spawn = spawn
	}
}

// NewSource returns a new power event source.
func NewSource(center Center, handler Handler, opts ...SourceOption) *Source {
	s := &Source{
		center:  center,
		handler: handler,
		spawn: func(fn func()) {
			go fn()
		},
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start registers the sleep and wake observers.
// Calling Start on a running or stopped source does nothing.
func (s *Source) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() || s.stopped {
		return
	}

	s.running.Store(true)
	s.ids = []ObserverID{
		s.center.AddObserver(WillSleep, s.dispatch),
		s.center.AddObserver(DidWake, s.dispatch),
	}

	s.logger.Debug("power event source started")
}

// Stop removes the sleep and wake observers.
// Calling Stop on a stopped source does nothing.
func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return
	}

	s.running.Store(false)
	s.stopped = true
	for _, id := range s.ids {
		s.center.RemoveObserver(id)
	}
	s.ids = nil

	s.logger.Debug("power event source stopped")
}

// Running reports whether the source is started.
func (s *Source) Running() bool {
	return s.running.Load()
}

// dispatch runs the handler callback for the notification off the delivery goroutine.
func (s *Source) dispatch(name Notification) {
	if !s.running.Load() {
		return
	}

	var callback func()
	switch name {
	case WillSleep:
		callback = s.handler.OnWillSleep

	case DidWake:
		callback = s.handler.OnDidWake

	default:
		return
	}

	s.logger.Debug("dispatching power notification", "notification", name.String())

	s.spawn(func() {
		start := time.Now()
		callback()

		if s.completion != nil {
			s.completion(name, time.Since(start))
		}
	})
}
