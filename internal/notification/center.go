// Package notification fans catalog notifications out to subscribers.
package notification

import (
	"fmt"
	"sync"

	"photocat/internal/catalog"
	"photocat/internal/metrics"
)

// Handler receives one notification.
type Handler func(n catalog.Notification)

type entry struct {
	id      uint64
	kind    catalog.NotificationKind // 0 matches every kind
	handler Handler
}

// Center is the notification bus. Delivery is synchronous on the posting
// goroutine, in posting order, to the subscribers registered at the time
// of the post, in subscription order.
type Center struct {
	mu      sync.RWMutex
	entries []entry
	nextID  uint64
	closed  bool

	logger  catalog.Logger
	metrics *metrics.Collector
}

var _ catalog.Notifier = (*Center)(nil)

// NewCenter creates a notification center. metrics may be nil.
func NewCenter(logger catalog.Logger, m *metrics.Collector) *Center {
	if logger == nil {
		logger = catalog.NewNopLogger()
	}
	return &Center{logger: logger, metrics: m}
}

// Subscribe registers h for one notification kind.
func (c *Center) Subscribe(kind catalog.NotificationKind, h Handler) *Subscription {
	return c.add(kind, h)
}

// SubscribeAll registers h for every notification.
func (c *Center) SubscribeAll(h Handler) *Subscription {
	return c.add(0, h)
}

func (c *Center) add(kind catalog.NotificationKind, h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	if c.closed {
		c.logger.Warn("subscribe after close", "kind", kind)
		return &Subscription{}
	}
	c.entries = append(c.entries, entry{id: id, kind: kind, handler: h})
	return &Subscription{center: c, id: id}
}

func (c *Center) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.id == id {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return
		}
	}
}

// Post delivers n to every matching subscriber. Posting to a closed
// center or with no subscriber is a logged no-op.
func (c *Center) Post(n catalog.Notification) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		c.logger.Warn("notification posted after close", "kind", n.Kind())
		c.metrics.NotificationDropped("closed")
		return
	}
	var targets []Handler
	for _, e := range c.entries {
		if e.kind == 0 || e.kind == n.Kind() {
			targets = append(targets, e.handler)
		}
	}
	c.mu.RUnlock()

	if len(targets) == 0 {
		c.logger.Debug("notification has no listener", "kind", n.Kind())
		c.metrics.NotificationDropped("no_listener")
		return
	}

	for _, h := range targets {
		c.deliver(h, n)
	}
	c.metrics.NotificationPosted(n.Kind().String())
}

func (c *Center) deliver(h Handler, n catalog.Notification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("notification handler panicked", "kind", n.Kind(), "panic", fmt.Sprint(r))
		}
	}()
	h(n)
}

// Len returns the number of active subscriptions.
func (c *Center) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close tears the center down and drops every subscription.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = nil
}

// Subscription is the handle of one registration. Close ends it.
type Subscription struct {
	once   sync.Once
	center *Center
	id     uint64
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.center != nil {
			s.center.remove(s.id)
		}
	})
}
