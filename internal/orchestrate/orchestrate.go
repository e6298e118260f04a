// Package orchestrate drives the provider registry and adapters to turn one
// media descriptor into one playable stream: bounded concurrent probing in
// preference order, first success wins, everything else is cancelled.
package orchestrate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sluice/internal/extract"
	"sluice/internal/httputil"
	"sluice/internal/media"
	"sluice/internal/provider"
	"sluice/internal/registry"
)

// Terminal orchestration outcomes. Individual provider failures never
// surface; they only drain the queue toward ErrExhausted.
var (
	// ErrExhausted means the queue drained and nothing worked.
	ErrExhausted = errors.New("all providers exhausted")
	// ErrTimedOut means the overall deadline hit with work still outstanding.
	ErrTimedOut = errors.New("resolution deadline exceeded")
)

// Options tunes one orchestrator instance.
type Options struct {
	// Concurrency is the size of the probe worker pool. Small on purpose:
	// it caps outbound connection pressure, not throughput.
	Concurrency int
	// OverallTimeout bounds the whole resolution.
	OverallTimeout time.Duration
	// ProbeTimeout bounds one provider's probe so a single slow upstream
	// cannot eat the whole budget.
	ProbeTimeout time.Duration
	// HostOverrides repoints provider IDs at alternate mirror hosts.
	HostOverrides map[string]string
	// OnEvent observes progress. It must be cheap; it is called inline from
	// workers and never affects control flow.
	OnEvent func(Event)

	// Order overrides the attempt order; nil means ask the registry.
	// Tests use it to probe fake providers.
	Order []string
	// Adapters overrides adapter construction; nil means provider.ForID.
	Adapters func(id string) (provider.Adapter, bool)
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.OverallTimeout <= 0 {
		o.OverallTimeout = 45 * time.Second
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 12 * time.Second
	}
	if o.Adapters == nil {
		overrides := o.HostOverrides
		o.Adapters = func(id string) (provider.Adapter, bool) {
			return provider.ForID(id, overrides)
		}
	}
	return o
}

// Orchestrator resolves descriptors against the provider catalogue.
type Orchestrator struct {
	fetcher httputil.Fetcher
	opts    Options
}

// New creates an orchestrator probing through the given fetch capability.
func New(fetcher httputil.Fetcher, opts Options) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, opts: opts.withDefaults()}
}

// Resolve runs the state machine for one request: compute the attempt
// order, probe providers with bounded parallelism, return the first fully
// resolved stream. Fails with ErrExhausted or ErrTimedOut only.
func (o *Orchestrator) Resolve(ctx context.Context, desc media.Descriptor, hint registry.Hint) (*media.ResolvedStream, error) {
	order := o.opts.Order
	if order == nil {
		order = registry.BuildAttemptOrder(hint)
	}

	requestID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"request": requestID, "media": desc.Key()})
	log.WithField("providers", len(order)).Debug("attempt order computed")

	o.emit(Event{Kind: EventInit, RequestID: requestID, Total: len(order)})

	ctx, cancel := context.WithTimeout(ctx, o.opts.OverallTimeout)
	defer cancel()

	queue := make(chan string)
	go func() {
		defer close(queue)
		for _, id := range order {
			select {
			case queue <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		won      atomic.Bool
		winnerCh = make(chan *media.ResolvedStream, 1)
		wg       sync.WaitGroup
	)

	workers := o.opts.Concurrency
	if workers > len(order) {
		workers = len(order)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range queue {
				if ctx.Err() != nil {
					return
				}
				stream := o.probe(ctx, requestID, id, desc)
				if stream == nil {
					continue
				}
				// Single-winner guard: the first CAS wins, later successes
				// are discarded and all remaining work is cancelled.
				if won.CompareAndSwap(false, true) {
					winnerCh <- stream
					cancel()
				}
				return
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case stream := <-winnerCh:
		log.WithField("provider", stream.ProviderID).Info("resolved")
		return stream, nil
	case <-done:
		// Workers may have drained because a winner cancelled the context;
		// prefer the winner if one landed.
		select {
		case stream := <-winnerCh:
			return stream, nil
		default:
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("resolution timed out")
			return nil, ErrTimedOut
		}
		log.Warn("providers exhausted")
		return nil, ErrExhausted
	}
}

// probe runs one provider attempt end to end: adapter resolve, optional
// embed exchange, extraction, quality selection. Returns nil on any
// failure; provider errors are recovered here and only reported as events.
func (o *Orchestrator) probe(ctx context.Context, requestID, id string, desc media.Descriptor) *media.ResolvedStream {
	adapter, ok := o.opts.Adapters(id)
	if !ok {
		logrus.WithField("provider", id).Warn("no adapter for catalogue entry")
		return nil
	}

	o.emit(Event{Kind: EventStart, RequestID: requestID, ProviderID: id})

	probeCtx, cancel := context.WithTimeout(ctx, o.opts.ProbeTimeout)
	defer cancel()

	res, err := adapter.Resolve(probeCtx, desc, o.fetcher)
	if err != nil {
		o.emit(Event{Kind: EventUpdate, RequestID: requestID, ProviderID: id, Status: statusFor(err)})
		logrus.WithField("provider", id).WithError(err).Debug("probe failed")
		return nil
	}
	if res.Empty() {
		o.emit(Event{Kind: EventUpdate, RequestID: requestID, ProviderID: id, Status: StatusNotFound})
		return nil
	}

	if res.Stream != nil {
		if s := finalize(res.Stream, id); s != nil {
			o.emit(Event{Kind: EventUpdate, RequestID: requestID, ProviderID: id, Status: StatusSuccess})
			return s
		}
		o.emit(Event{Kind: EventUpdate, RequestID: requestID, ProviderID: id, Status: StatusFailure})
		return nil
	}

	// Embed phase: exchange all candidates concurrently, extract from each
	// success, first extractable body wins.
	bodies := provider.ExchangeAll(probeCtx, adapter, res.Embeds, o.fetcher)
	for _, body := range bodies {
		stream := extract.Extract(body)
		if stream == nil {
			continue
		}
		if s := finalize(stream, id); s != nil {
			o.emit(Event{Kind: EventUpdate, RequestID: requestID, ProviderID: id, Status: StatusSuccess})
			return s
		}
	}

	o.emit(Event{Kind: EventUpdate, RequestID: requestID, ProviderID: id, Status: StatusFailure})
	return nil
}

// finalize applies quality selection and the normalized header set, and
// enforces the terminal invariants (non-empty URL, known format).
func finalize(s *media.ResolvedStream, providerID string) *media.ResolvedStream {
	if s.ProviderID == "" {
		s.ProviderID = providerID
	}
	if best := extract.PickBest(s.Qualities); best != "" {
		s.URL = best
	}
	if s.URL == "" {
		return nil
	}
	if s.Format == media.FormatUnknown {
		s.Format = extract.ClassifyURL(s.URL)
		if s.Format == media.FormatUnknown {
			return nil
		}
	}
	s.Headers = normalizeHeaders(s.Headers)
	return s
}

// normalizeHeaders guarantees the header set players need, preserving
// whatever the provider already demanded.
func normalizeHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	if out["User-Agent"] == "" {
		out["User-Agent"] = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"
	}
	return out
}

func (o *Orchestrator) emit(e Event) {
	if o.opts.OnEvent != nil {
		o.opts.OnEvent(e)
	}
}

func statusFor(err error) Status {
	var perr *provider.Error
	if errors.As(err, &perr) && perr.Kind == provider.KindNotFound {
		return StatusNotFound
	}
	return StatusFailure
}
