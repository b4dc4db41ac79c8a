// Package power delivers the system's sleep and wake notifications.
package power

import (
	"github.com/cskr/pubsub/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"
)

// Notification is a named power notification.
type Notification uint

// The different power notifications.
const (
	WillSleep Notification = iota + 1
	DidWake
)

// String returns the name of the notification.
func (n Notification) String() string {
	switch n {
	case WillSleep:
		return "will-sleep"

	case DidWake:
		return "did-wake"
	}

	return "unknown"
}

// ObserverID identifies a registered observer.
type ObserverID uint64

// Poster posts notifications.
type Poster interface {
	Post(name Notification)
}

// Center registers observers for named notifications.
type Center interface {
	AddObserver(name Notification, fn func(Notification)) ObserverID
	RemoveObserver(id ObserverID)
}

// NotificationCenter is an in-process notification center.
// Each observer receives notifications in the order they were posted,
// on a delivery goroutine owned by the center.
type NotificationCenter struct {
	bus       *pubsub.PubSub[Notification, Notification]
	observers *xsync.MapOf[ObserverID, chan Notification]

	lastID atomic.Uint64
	posted *xsync.Counter
	closed atomic.Bool
}

// NewNotificationCenter returns a new notification center.
func NewNotificationCenter() *NotificationCenter {
	return &NotificationCenter{
		bus:       pubsub.New[Notification, Notification](10),
		observers: xsync.NewMapOf[ObserverID, chan Notification](),
		posted:    xsync.NewCounter(),
	}
}

// AddObserver registers fn to be called for every posted notification with the provided name.
func (c *NotificationCenter) AddObserver(name Notification, fn func(Notification)) ObserverID {
	id := ObserverID(c.lastID.Inc())
	if c.closed.Load() {
		return id
	}

	ch := c.bus.Sub(name)
	c.observers.Store(id, ch)

	go func() {
		for n := range ch {
			fn(n)
		}
	}()

	return id
}

// RemoveObserver unregisters an observer.
// Removing an unknown observer does nothing.
func (c *NotificationCenter) RemoveObserver(id ObserverID) {
	ch, ok := c.observers.LoadAndDelete(id)
	if !ok || c.closed.Load() {
		return
	}

	c.bus.Unsub(ch)
}

// Post delivers a notification to all its observers.
func (c *NotificationCenter) Post(name Notification) {
	if c.closed.Load() {
		return
	}

	c.posted.Inc()
	c.bus.Pub(name, name)
}

// Observers returns the number of registered observers.
func (c *NotificationCenter) Observers() int {
	return c.observers.Size()
}

// Posted returns the number of notifications posted so far.
func (c *NotificationCenter) Posted() int64 {
	return c.posted.Value()
}

// Close shuts down the notification center and all delivery goroutines.
func (c *NotificationCenter) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.observers.Clear()
	c.bus.Shutdown()
}
