// Package cache keeps per-bucket lists of media items and resolves them
// lazily: metadata-only entries are promoted to playable streams only when
// they enter or approach the active viewing window, or opportunistically by
// the background filler.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sluice/internal/media"
)

// ResolveFunc turns a descriptor into a playable stream; the orchestrator
// provides it. The bucket key is passed so the caller can derive routing
// hints from the bucket being warmed.
type ResolveFunc func(ctx context.Context, bucket string, desc media.Descriptor) (*media.ResolvedStream, error)

// ListFunc fetches the metadata-only items for a bucket from a catalogue
// provider.
type ListFunc func(ctx context.Context, bucket string) ([]media.Item, error)

// Scheduler runs deferred work off the caller's critical path. The default
// spawns goroutines; tests substitute a synchronous one.
type Scheduler interface {
	Go(fn func())
}

// GoScheduler runs work on fresh goroutines.
type GoScheduler struct{}

func (GoScheduler) Go(fn func()) { go fn() }

// lookahead is how many metadata-only items past the active index a report
// resolves, in addition to the active item itself.
const lookahead = 2

// Options tunes a Cache.
type Options struct {
	// TTL bounds how long a bucket's fetch is served; a stale bucket reads
	// as empty and triggers a refill.
	TTL time.Duration
	// Now is the clock; defaults to time.Now. Injected so TTL behavior is
	// testable.
	Now func() time.Time
	// Scheduler runs lazy resolutions and background fills.
	Scheduler Scheduler
	// Store, when set, persists resolved streams across restarts.
	// Best-effort only: store errors are logged and ignored.
	Store *Store
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 30 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Scheduler == nil {
		o.Scheduler = GoScheduler{}
	}
	return o
}

type bucket struct {
	items     []media.Item
	fetchedAt time.Time
}

// Cache is the only shared mutable state between concurrent callers; every
// mutation happens under its lock, and in-flight resolutions are tracked per
// item key so the same item is never resolved twice at once.
type Cache struct {
	resolve ResolveFunc
	list    ListFunc
	opts    Options

	mu        sync.Mutex
	buckets   map[string]*bucket
	resolving map[string]bool
}

// New creates a cache over the given resolver and lister.
func New(resolve ResolveFunc, list ListFunc, opts Options) *Cache {
	return &Cache{
		resolve:   resolve,
		list:      list,
		opts:      opts.withDefaults(),
		buckets:   make(map[string]*bucket),
		resolving: make(map[string]bool),
	}
}

// Items returns the bucket's current item list in order. A missing or
// expired bucket reads as empty and schedules a background fill; expired
// items are never served.
func (c *Cache) Items(ctx context.Context, key string) []media.Item {
	c.mu.Lock()
	b, ok := c.buckets[key]
	if ok && !c.expiredLocked(b) {
		out := make([]media.Item, len(b.items))
		copy(out, b.items)
		c.mu.Unlock()
		return out
	}
	if ok {
		delete(c.buckets, key)
	}
	c.mu.Unlock()

	c.TriggerFill(ctx, key)
	return nil
}

func (c *Cache) expiredLocked(b *bucket) bool {
	return c.opts.Now().Sub(b.fetchedAt) >= c.opts.TTL
}

// TriggerFill schedules a background fill for the bucket.
func (c *Cache) TriggerFill(ctx context.Context, key string) {
	c.opts.Scheduler.Go(func() {
		if err := c.Fill(ctx, key); err != nil {
			logrus.WithField("bucket", key).WithError(err).Debug("background fill failed")
		}
	})
}

// Fill fetches the bucket's metadata items and installs them, carrying over
// streams already resolved for item keys that survive the refresh and
// re-attaching any persisted ones.
func (c *Cache) Fill(ctx context.Context, key string) error {
	items, err := c.list(ctx, key)
	if err != nil {
		return err
	}

	var persisted map[string]*media.ResolvedStream
	if c.opts.Store != nil {
		persisted, err = c.opts.Store.Load(key, c.opts.TTL, c.opts.Now())
		if err != nil {
			logrus.WithField("bucket", key).WithError(err).Debug("durable cache load failed")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := map[string]*media.ResolvedStream{}
	if old, ok := c.buckets[key]; ok && !c.expiredLocked(old) {
		for _, item := range old.items {
			if item.Stream != nil {
				prev[item.Key] = item.Stream
			}
		}
	}

	for i := range items {
		if s, ok := prev[items[i].Key]; ok {
			items[i].Stream = s
		} else if s, ok := persisted[items[i].Key]; ok {
			items[i].Stream = s
		}
	}

	c.buckets[key] = &bucket{items: items, fetchedAt: c.opts.Now()}
	return nil
}

// ReportActiveIndex tells the cache which item is active in the viewing
// window. It lazily resolves the active item and the next two that are
// still metadata-only, each on the scheduler, each failure swallowed at the
// item level.
func (c *Cache) ReportActiveIndex(ctx context.Context, key string, index int) {
	c.mu.Lock()
	b, ok := c.buckets[key]
	if !ok || c.expiredLocked(b) || index < 0 || index >= len(b.items) {
		c.mu.Unlock()
		return
	}

	// The window is fixed at the active index plus the lookahead; resolved
	// or in-flight entries inside it are skipped, never substituted.
	var targets []media.Item
	for i := index; i < len(b.items) && i <= index+lookahead; i++ {
		item := b.items[i]
		if item.Resolved() || c.resolving[item.Key] {
			continue
		}
		c.resolving[item.Key] = true
		targets = append(targets, item)
	}
	c.mu.Unlock()

	for _, item := range targets {
		item := item
		c.opts.Scheduler.Go(func() {
			c.resolveItem(ctx, key, item)
		})
	}
}

// Promote resolves up to n metadata-only items from the head of the bucket.
// The background filler uses it to top the bucket up during idle time.
func (c *Cache) Promote(ctx context.Context, key string, n int) {
	c.mu.Lock()
	b, ok := c.buckets[key]
	if !ok || c.expiredLocked(b) {
		c.mu.Unlock()
		return
	}
	var targets []media.Item
	for _, item := range b.items {
		if len(targets) >= n {
			break
		}
		if item.Resolved() || c.resolving[item.Key] {
			continue
		}
		c.resolving[item.Key] = true
		targets = append(targets, item)
	}
	c.mu.Unlock()

	for _, item := range targets {
		c.resolveItem(ctx, key, item)
	}
}

// resolveItem promotes one item in place. On failure the item stays
// metadata-only; the bucket is never poisoned by one bad title.
func (c *Cache) resolveItem(ctx context.Context, key string, item media.Item) {
	defer func() {
		c.mu.Lock()
		delete(c.resolving, item.Key)
		c.mu.Unlock()
	}()

	stream, err := c.resolve(ctx, key, item.Descriptor)
	if err != nil || stream == nil {
		logrus.WithFields(logrus.Fields{"bucket": key, "item": item.Key}).
			WithError(err).Debug("lazy resolution failed")
		return
	}

	c.mu.Lock()
	if b, ok := c.buckets[key]; ok {
		for i := range b.items {
			if b.items[i].Key == item.Key {
				b.items[i].Stream = stream
				break
			}
		}
	}
	c.mu.Unlock()

	if c.opts.Store != nil {
		if err := c.opts.Store.Save(key, item.Key, stream, c.opts.Now()); err != nil {
			logrus.WithField("item", item.Key).WithError(err).Debug("durable cache save failed")
		}
	}
}

// Stale reports whether the bucket needs a refill.
func (c *Cache) Stale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buckets[key]
	return !ok || c.expiredLocked(b)
}
