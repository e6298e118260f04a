package cache

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Filler keeps a set of buckets warm: it refills stale buckets on a cron
// schedule and opportunistically promotes a few metadata-only items from the
// head of each bucket while the process is otherwise idle.
type Filler struct {
	cache   *Cache
	buckets []string
	promote int
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// NewFiller creates a filler over the given buckets. promotePerTick bounds
// how many head items each tick resolves per bucket; zero disables
// opportunistic promotion.
func NewFiller(c *Cache, buckets []string, promotePerTick int) *Filler {
	return &Filler{
		cache:   c,
		buckets: buckets,
		promote: promotePerTick,
		cron:    cron.New(),
	}
}

// Start registers the tick at the given interval and launches the schedule.
// An immediate first tick warms the buckets without waiting a full period.
func (f *Filler) Start(ctx context.Context, every time.Duration) error {
	ctx, f.cancel = context.WithCancel(ctx)
	_, err := f.cron.AddFunc("@every "+every.String(), func() { f.tick(ctx) })
	if err != nil {
		return err
	}
	go f.tick(ctx)
	f.cron.Start()
	return nil
}

// Stop halts the schedule and cancels in-flight work.
func (f *Filler) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	stopped := f.cron.Stop()
	<-stopped.Done()
}

// tick refreshes every stale bucket, then promotes from the head. Bucket
// failures are independent; one dead catalogue never blocks the others.
func (f *Filler) tick(ctx context.Context) {
	for _, bucket := range f.buckets {
		if ctx.Err() != nil {
			return
		}
		if f.cache.Stale(bucket) {
			if err := f.cache.Fill(ctx, bucket); err != nil {
				logrus.WithField("bucket", bucket).WithError(err).Debug("scheduled fill failed")
				continue
			}
		}
		if f.promote > 0 {
			f.cache.Promote(ctx, bucket, f.promote)
		}
	}
}
