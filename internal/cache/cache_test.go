package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sluice/internal/media"
)

// syncScheduler runs scheduled work inline so tests are deterministic.
type syncScheduler struct{}

func (syncScheduler) Go(fn func()) { fn() }

// deferredScheduler collects work so tests can interleave calls before any
// resolution runs.
type deferredScheduler struct {
	fns []func()
}

func (d *deferredScheduler) Go(fn func()) { d.fns = append(d.fns, fn) }

func (d *deferredScheduler) run() {
	for _, fn := range d.fns {
		fn()
	}
	d.fns = nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedResolver records which descriptors were resolved and fails for
// keys listed in fail.
type scriptedResolver struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (r *scriptedResolver) resolve(_ context.Context, _ string, desc media.Descriptor) (*media.ResolvedStream, error) {
	r.mu.Lock()
	r.calls = append(r.calls, desc.Key())
	r.mu.Unlock()
	if r.fail[desc.Key()] {
		return nil, errors.New("no stream found")
	}
	return &media.ResolvedStream{
		URL:        "https://edge.example/" + desc.ExternalID + ".m3u8",
		Format:     media.FormatAdaptivePlaylist,
		ProviderID: "vidwave",
	}, nil
}

func (r *scriptedResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func makeItems(n int) []media.Item {
	items := make([]media.Item, n)
	for i := range items {
		id := fmt.Sprintf("%d", 100+i)
		items[i] = media.Item{
			Key:   "movie/m-" + id,
			Title: "Title " + id,
			Descriptor: media.Descriptor{
				Type:       media.Movie,
				Title:      "Title " + id,
				ExternalID: id,
			},
		}
	}
	return items
}

type listCounter struct {
	mu    sync.Mutex
	calls int
	items []media.Item
}

func (l *listCounter) list(context.Context, string) ([]media.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	out := make([]media.Item, len(l.items))
	copy(out, l.items)
	return out, nil
}

func (l *listCounter) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func newTestCache(t *testing.T, items []media.Item, opts Options) (*Cache, *scriptedResolver, *listCounter) {
	t.Helper()
	resolver := &scriptedResolver{}
	lister := &listCounter{items: items}
	if opts.Scheduler == nil {
		opts.Scheduler = syncScheduler{}
	}
	return New(resolver.resolve, lister.list, opts), resolver, lister
}

func TestReportActiveIndexResolvesWindowOnly(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, _, _ := newTestCache(t, makeItems(10), Options{TTL: time.Hour, Now: clk.Now})

	ctx := context.Background()
	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	c.ReportActiveIndex(ctx, "trending", 3)

	items := c.Items(ctx, "trending")
	for i, item := range items {
		want := i >= 3 && i <= 5
		if item.Resolved() != want {
			t.Errorf("item %d resolved = %v, want %v", i, item.Resolved(), want)
		}
	}
}

func TestReportActiveIndexWindowAtTail(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, resolver, _ := newTestCache(t, makeItems(5), Options{TTL: time.Hour, Now: clk.Now})

	ctx := context.Background()
	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	// Only one item past the active index exists; the window clamps.
	c.ReportActiveIndex(ctx, "trending", 3)
	if got := resolver.callCount(); got != 2 {
		t.Errorf("resolutions = %d, want 2", got)
	}
}

func TestReportActiveIndexOutOfRange(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, resolver, _ := newTestCache(t, makeItems(5), Options{TTL: time.Hour, Now: clk.Now})

	ctx := context.Background()
	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	c.ReportActiveIndex(ctx, "trending", -1)
	c.ReportActiveIndex(ctx, "trending", 5)
	c.ReportActiveIndex(ctx, "missing", 0)
	if got := resolver.callCount(); got != 0 {
		t.Errorf("resolutions = %d, want 0", got)
	}
}

func TestReportActiveIndexNeverResolvesTwice(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	sched := &deferredScheduler{}
	c, resolver, _ := newTestCache(t, makeItems(10), Options{TTL: time.Hour, Now: clk.Now, Scheduler: sched})

	ctx := context.Background()
	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	// Two overlapping reports before any resolution runs: the in-flight
	// guard must dedupe the shared window.
	c.ReportActiveIndex(ctx, "trending", 2)
	c.ReportActiveIndex(ctx, "trending", 3)
	sched.run()

	if got := resolver.callCount(); got != 4 {
		t.Errorf("resolutions = %d, want 4 distinct items (2..5)", got)
	}
}

func TestResolutionFailureLeavesItemMetadataOnly(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, resolver, _ := newTestCache(t, makeItems(10), Options{TTL: time.Hour, Now: clk.Now})
	// The resolver is keyed by the descriptor identity, not the item key.
	resolver.fail = map[string]bool{"movie/104": true}

	ctx := context.Background()
	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	c.ReportActiveIndex(ctx, "trending", 3)

	items := c.Items(ctx, "trending")
	if items[4].Resolved() {
		t.Error("failed item should stay metadata-only")
	}
	if !items[3].Resolved() || !items[5].Resolved() {
		t.Error("one failing item must not block its neighbors")
	}
}

func TestItemsExpireAfterTTL(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, _, lister := newTestCache(t, makeItems(3), Options{TTL: 30 * time.Minute, Now: clk.Now})

	ctx := context.Background()
	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if got := c.Items(ctx, "trending"); len(got) != 3 {
		t.Fatalf("fresh bucket len = %d, want 3", len(got))
	}
	fills := lister.count()

	clk.Advance(30*time.Minute + time.Second)

	// An expired bucket reads as empty and triggers a fresh fill. With the
	// synchronous scheduler the refill runs inline, so the next read is warm.
	if got := c.Items(ctx, "trending"); got != nil {
		t.Errorf("expired bucket returned %d items, want none", len(got))
	}
	if lister.count() != fills+1 {
		t.Error("expired read did not trigger a refill")
	}
	if got := c.Items(ctx, "trending"); len(got) != 3 {
		t.Errorf("post-refill len = %d, want 3", len(got))
	}
}

func TestFillCarriesResolvedStreamsAcrossRefresh(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, resolver, _ := newTestCache(t, makeItems(5), Options{TTL: time.Hour, Now: clk.Now})

	ctx := context.Background()
	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	c.ReportActiveIndex(ctx, "trending", 0)
	before := resolver.callCount()

	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("refill error = %v", err)
	}

	items := c.Items(ctx, "trending")
	if !items[0].Resolved() {
		t.Error("refill dropped an already resolved stream")
	}
	c.ReportActiveIndex(ctx, "trending", 0)
	if got := resolver.callCount(); got != before {
		t.Errorf("resolutions = %d, want %d (carried items skipped)", got, before)
	}
}

func TestPromoteResolvesHeadItems(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, resolver, _ := newTestCache(t, makeItems(6), Options{TTL: time.Hour, Now: clk.Now})

	ctx := context.Background()
	if err := c.Fill(ctx, "latest"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	c.Promote(ctx, "latest", 2)
	items := c.Items(ctx, "latest")
	if !items[0].Resolved() || !items[1].Resolved() {
		t.Error("head items not promoted")
	}
	if items[2].Resolved() {
		t.Error("promotion overshot its budget")
	}

	// A second promote skips the resolved head.
	c.Promote(ctx, "latest", 2)
	if !items[0].Resolved() {
		t.Fatal("promotion state lost")
	}
	if got := resolver.callCount(); got != 4 {
		t.Errorf("resolutions = %d, want 4", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "sluice.db"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer store.Close()

	now := time.Unix(1_700_000_000, 0)
	stream := &media.ResolvedStream{
		URL:        "https://edge.example/x.m3u8",
		Format:     media.FormatAdaptivePlaylist,
		Headers:    map[string]string{"Referer": "https://vidwave.to/"},
		ProviderID: "vidwave",
	}
	if err := store.Save("trending", "movie/m-100", stream, now); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save("trending", "movie/m-101", stream, now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load("trending", time.Hour, now)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, ok := loaded["movie/m-100"]
	if !ok {
		t.Fatal("fresh row missing")
	}
	if got.URL != stream.URL || got.ProviderID != stream.ProviderID {
		t.Errorf("loaded stream = %+v", got)
	}
	if got.Headers["Referer"] != "https://vidwave.to/" {
		t.Error("headers lost in round trip")
	}
	if _, ok := loaded["movie/m-101"]; ok {
		t.Error("expired row should be skipped")
	}
}

func TestStorePrune(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "sluice.db"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer store.Close()

	now := time.Unix(1_700_000_000, 0)
	stream := &media.ResolvedStream{URL: "https://edge.example/x.mp4", Format: media.FormatFile}
	if err := store.Save("latest", "movie/m-1", stream, now.Add(-time.Hour)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Prune(now); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	loaded, err := store.Load("latest", 24*time.Hour, now)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("pruned store still holds %d rows", len(loaded))
	}
}

func TestFillReattachesPersistedStreams(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "sluice.db"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer store.Close()

	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	stream := &media.ResolvedStream{URL: "https://edge.example/100.m3u8", Format: media.FormatAdaptivePlaylist}
	if err := store.Save("trending", "movie/m-100", stream, clk.Now()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	c, resolver, _ := newTestCache(t, makeItems(3), Options{TTL: time.Hour, Now: clk.Now, Store: store})
	ctx := context.Background()
	if err := c.Fill(ctx, "trending"); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	items := c.Items(ctx, "trending")
	if !items[0].Resolved() {
		t.Fatal("persisted stream not reattached on fill")
	}
	c.ReportActiveIndex(ctx, "trending", 0)
	if got := resolver.callCount(); got != 2 {
		t.Errorf("resolutions = %d, want 2 (persisted item skipped)", got)
	}
}
