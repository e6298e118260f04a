// Package provider implements one adapter per upstream content source.
// Every adapter maps its provider-specific response shapes into embed
// candidates or a resolved stream; all network I/O goes through the injected
// fetch capability so pacing, proxying and retries stay deployment concerns.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sluice/internal/httputil"
	"sluice/internal/media"
)

// Result is an adapter's answer for one descriptor: either a fully resolved
// stream, or a set of embed candidates needing an exchange fetch, or nothing
// (the provider has no entry for this media — not an error).
type Result struct {
	Stream *media.ResolvedStream
	Embeds []media.EmbedCandidate
}

// Empty reports whether the provider produced neither a stream nor candidates.
func (r Result) Empty() bool {
	return r.Stream == nil && len(r.Embeds) == 0
}

// Adapter is implemented once per upstream provider.
type Adapter interface {
	// ID returns the catalogue identifier the adapter serves.
	ID() string

	// Resolve performs the provider's primary fetch(es) for the descriptor.
	// An empty or malformed top-level payload yields an empty Result, not an
	// error, so "provider has nothing" and "provider was skipped" look the
	// same to the orchestrator.
	Resolve(ctx context.Context, desc media.Descriptor, fetcher httputil.Fetcher) (Result, error)

	// Exchange swaps one embed candidate for a raw body the extractor can
	// work on. Adapters without an embed phase never receive this call.
	Exchange(ctx context.Context, cand media.EmbedCandidate, fetcher httputil.Fetcher) (string, error)
}

// ErrorKind classifies a provider failure. All kinds are recovered locally
// by the orchestrator and only contribute to exhaustion.
type ErrorKind int

const (
	KindTimeout ErrorKind = iota
	KindNotFound
	KindParseFailure
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not-found"
	case KindParseFailure:
		return "parse-failure"
	default:
		return "upstream"
	}
}

// Error is a classified provider failure.
type Error struct {
	ProviderID string
	Kind       ErrorKind
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.ProviderID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classifyFetchErr wraps a fetch failure into a provider Error.
func classifyFetchErr(providerID string, err error) *Error {
	kind := KindUpstream
	var statusErr *httputil.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &statusErr):
		if statusErr.Code == 404 {
			kind = KindNotFound
		}
	}
	return &Error{ProviderID: providerID, Kind: kind, Err: err}
}

// parseErr wraps a malformed-response failure.
func parseErr(providerID string, err error) *Error {
	return &Error{ProviderID: providerID, Kind: KindParseFailure, Err: err}
}

// ExchangeAll runs the embed exchange for every candidate concurrently and
// returns the bodies of the successful ones, in candidate order. Candidates
// are independent and cheap, so partial failure is tolerated: one bad mirror
// never hides the others.
func ExchangeAll(ctx context.Context, a Adapter, cands []media.EmbedCandidate, fetcher httputil.Fetcher) []string {
	bodies := make([]string, len(cands))
	ok := make([]bool, len(cands))

	var wg sync.WaitGroup
	for i, cand := range cands {
		wg.Add(1)
		go func(i int, cand media.EmbedCandidate) {
			defer wg.Done()
			body, err := a.Exchange(ctx, cand, fetcher)
			if err != nil || body == "" {
				return
			}
			bodies[i] = body
			ok[i] = true
		}(i, cand)
	}
	wg.Wait()

	out := make([]string, 0, len(cands))
	for i := range cands {
		if ok[i] {
			out = append(out, bodies[i])
		}
	}
	return out
}

// dedupeByLabel keeps the first candidate per embed technology. Upstreams
// often list many mirrors of the same technology; probing more than one of
// each buys nothing.
func dedupeByLabel(cands []media.EmbedCandidate) []media.EmbedCandidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if seen[c.Label] {
			continue
		}
		seen[c.Label] = true
		out = append(out, c)
	}
	return out
}
