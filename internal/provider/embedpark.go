package provider

import (
	"context"
	"fmt"
	"strconv"

	"sluice/internal/extract"
	"sluice/internal/httputil"
	"sluice/internal/media"
)

// Embedpark mirrors (embedpark, zenembed) serve a single opaque player page
// per title: sometimes a bare URL, sometimes JSON, sometimes a packed
// script. The adapter hands the body to the extraction chain and returns a
// direct stream when anything matches.
type Embedpark struct {
	id   string
	host string
}

// NewEmbedpark creates an adapter for one mirror of the embedpark family.
func NewEmbedpark(id, host string) *Embedpark {
	return &Embedpark{id: id, host: host}
}

func (e *Embedpark) ID() string { return e.id }

func (e *Embedpark) Resolve(ctx context.Context, desc media.Descriptor, fetcher httputil.Fetcher) (Result, error) {
	if err := httputil.ValidateID(desc.ExternalID); err != nil {
		return Result{}, parseErr(e.id, fmt.Errorf("invalid content ID: %w", err))
	}

	playURL := fmt.Sprintf("https://%s/play/%s", e.host, desc.ExternalID)
	if desc.IsShow() && desc.Season != nil && desc.Episode != nil {
		playURL += "/" + strconv.Itoa(desc.Season.Number) + "/" + strconv.Itoa(desc.Episode.Number)
	}

	body, err := fetcher.Fetch(ctx, playURL, nil)
	if err != nil {
		return Result{}, classifyFetchErr(e.id, err)
	}

	stream := extract.Extract(string(body))
	if stream == nil {
		// Nothing extractable: the provider has nothing for this title.
		return Result{}, nil
	}
	stream.ProviderID = e.id
	return Result{Stream: stream}, nil
}

// Exchange is never called: embedpark resolves in one hop.
func (e *Embedpark) Exchange(ctx context.Context, cand media.EmbedCandidate, fetcher httputil.Fetcher) (string, error) {
	return "", parseErr(e.id, fmt.Errorf("provider has no embed phase"))
}
