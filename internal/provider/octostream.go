package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"sluice/internal/httputil"
	"sluice/internal/media"
)

// Octostream serves a JSON embed directory (octostream, mirrorcast,
// otakustream): the first call lists embeds per title, the exchange call
// returns an opaque player payload that the extractor has to dig through.
type Octostream struct {
	id   string
	host string
}

// NewOctostream creates an adapter for one mirror of the octostream family.
func NewOctostream(id, host string) *Octostream {
	return &Octostream{id: id, host: host}
}

func (o *Octostream) ID() string { return o.id }

// Resolve lists the title's embeds and maps them into candidates,
// deduplicated by embed technology.
func (o *Octostream) Resolve(ctx context.Context, desc media.Descriptor, fetcher httputil.Fetcher) (Result, error) {
	if err := httputil.ValidateID(desc.ExternalID); err != nil {
		return Result{}, parseErr(o.id, fmt.Errorf("invalid content ID: %w", err))
	}

	q := url.Values{}
	q.Set("id", desc.ExternalID)
	if desc.ImdbID != "" {
		q.Set("imdb", desc.ImdbID)
	}
	if desc.IsShow() && desc.Season != nil && desc.Episode != nil {
		q.Set("s", strconv.Itoa(desc.Season.Number))
		q.Set("e", strconv.Itoa(desc.Episode.Number))
	}
	listURL := fmt.Sprintf("https://%s/api/embeds?%s", o.host, q.Encode())

	body, err := fetcher.Fetch(ctx, listURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return Result{}, classifyFetchErr(o.id, err)
	}

	var embeds []struct {
		Server string `json:"server"`
		Key    string `json:"key"`
	}
	if err := json.Unmarshal(body, &embeds); err != nil {
		// Malformed top-level payload fails softly.
		return Result{}, nil
	}

	cands := make([]media.EmbedCandidate, 0, len(embeds))
	for _, e := range embeds {
		if e.Key == "" {
			continue
		}
		cands = append(cands, media.EmbedCandidate{
			ProviderID: o.id,
			OpaqueKey:  e.Key,
			Label:      strings.ToLower(e.Server),
		})
	}
	return Result{Embeds: dedupeByLabel(cands)}, nil
}

// Exchange fetches the embed's player payload; the body goes straight to the
// extractor, shape unseen.
func (o *Octostream) Exchange(ctx context.Context, cand media.EmbedCandidate, fetcher httputil.Fetcher) (string, error) {
	if err := httputil.ValidateID(cand.OpaqueKey); err != nil {
		return "", parseErr(o.id, fmt.Errorf("invalid embed key: %w", err))
	}

	body, err := fetcher.Fetch(ctx, fmt.Sprintf("https://%s/api/embed/%s", o.host, cand.OpaqueKey), nil)
	if err != nil {
		return "", classifyFetchErr(o.id, err)
	}
	return string(body), nil
}
