package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"sluice/internal/httputil"
	"sluice/internal/media"
)

// Novafilm talks to a JSON API family (novafilm, cinepulse, animux) that
// returns a fully resolved stream in one call: no embed indirection.
type Novafilm struct {
	id   string
	host string
}

// NewNovafilm creates an adapter for one mirror of the novafilm family.
func NewNovafilm(id, host string) *Novafilm {
	return &Novafilm{id: id, host: host}
}

func (n *Novafilm) ID() string { return n.id }

// titleResponse is the API's response shape.
type titleResponse struct {
	Stream    string            `json:"stream"`
	Qualities map[string]string `json:"qualities"`
	Headers   map[string]string `json:"headers"`
	Subtitles []struct {
		Lang  string `json:"lang"`
		Label string `json:"label"`
		File  string `json:"file"`
	} `json:"subtitles"`
}

// Resolve performs a single API call and maps the response into a resolved
// stream. The API addresses titles by IMDb ID when available, falling back
// to the caller's external ID.
func (n *Novafilm) Resolve(ctx context.Context, desc media.Descriptor, fetcher httputil.Fetcher) (Result, error) {
	ref := desc.ImdbID
	if ref == "" {
		ref = desc.ExternalID
	}
	if err := httputil.ValidateID(ref); err != nil {
		return Result{}, parseErr(n.id, fmt.Errorf("invalid title reference: %w", err))
	}

	apiURL := fmt.Sprintf("https://%s/v1/title/%s", n.host, ref)
	if desc.IsShow() && desc.Season != nil && desc.Episode != nil {
		apiURL = fmt.Sprintf("https://%s/v1/title/%s/season/%d/episode/%d",
			n.host, ref, desc.Season.Number, desc.Episode.Number)
	}

	body, err := fetcher.Fetch(ctx, apiURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return Result{}, classifyFetchErr(n.id, err)
	}

	var resp titleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Malformed top-level payload fails softly.
		return Result{}, nil
	}
	if resp.Stream == "" && len(resp.Qualities) == 0 {
		return Result{}, nil
	}

	stream := &media.ResolvedStream{
		URL:        resp.Stream,
		Qualities:  resp.Qualities,
		Headers:    resp.Headers,
		ProviderID: n.id,
	}
	for _, s := range resp.Subtitles {
		if s.File == "" {
			continue
		}
		stream.Subtitles = append(stream.Subtitles, media.Subtitle{
			Language: s.Lang,
			Label:    s.Label,
			URL:      s.File,
		})
	}
	return Result{Stream: stream}, nil
}

// Exchange is never called: novafilm has no embed phase.
func (n *Novafilm) Exchange(ctx context.Context, cand media.EmbedCandidate, fetcher httputil.Fetcher) (string, error) {
	return "", parseErr(n.id, fmt.Errorf("provider has no embed phase"))
}
