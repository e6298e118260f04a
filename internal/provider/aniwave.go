package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"sluice/internal/httputil"
	"sluice/internal/media"
)

// Aniwave is the anime-focused HTML/JSON hybrid. Its server list is JSON,
// its catalogue pages are HTML, and its per-title detail pages have to be
// enumerated one by one — the injected fetcher's pacing keeps that
// enumeration from looking like a crawler.
type Aniwave struct {
	id   string
	host string
}

// NewAniwave creates the aniwave adapter.
func NewAniwave(id, host string) *Aniwave {
	return &Aniwave{id: id, host: host}
}

func (a *Aniwave) ID() string { return a.id }

// Resolve lists the episode's servers and maps them into embed candidates.
func (a *Aniwave) Resolve(ctx context.Context, desc media.Descriptor, fetcher httputil.Fetcher) (Result, error) {
	// This mirror's server-list endpoint only takes its own numeric title
	// IDs; anything else is a routing mistake upstream.
	if err := httputil.ValidateNumericID(desc.ExternalID); err != nil {
		return Result{}, parseErr(a.id, fmt.Errorf("invalid content ID: %w", err))
	}

	ep := 1
	if desc.Episode != nil {
		ep = desc.Episode.Number
	}
	listURL := fmt.Sprintf("https://%s/ajax/server/list/%s?ep=%d", a.host, desc.ExternalID, ep)

	body, err := fetcher.Fetch(ctx, listURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return Result{}, classifyFetchErr(a.id, err)
	}

	var resp struct {
		Servers []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"servers"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, nil
	}

	cands := make([]media.EmbedCandidate, 0, len(resp.Servers))
	for _, s := range resp.Servers {
		if s.ID == "" {
			continue
		}
		cands = append(cands, media.EmbedCandidate{
			ProviderID: a.id,
			OpaqueKey:  s.ID,
			Label:      strings.ToLower(s.Name),
		})
	}
	return Result{Embeds: dedupeByLabel(cands)}, nil
}

// Exchange swaps a server ID for its player payload.
func (a *Aniwave) Exchange(ctx context.Context, cand media.EmbedCandidate, fetcher httputil.Fetcher) (string, error) {
	if err := httputil.ValidateID(cand.OpaqueKey); err != nil {
		return "", parseErr(a.id, fmt.Errorf("invalid server ID: %w", err))
	}

	body, err := fetcher.Fetch(ctx, fmt.Sprintf("https://%s/ajax/server/%s", a.host, cand.OpaqueKey), nil)
	if err != nil {
		return "", classifyFetchErr(a.id, err)
	}
	return string(body), nil
}

// List implements Catalog over the site's genre pages. Listing cards carry
// no year, so each item's detail page is fetched sequentially to fill it in;
// the fetcher paces those same-host requests.
func (a *Aniwave) List(ctx context.Context, genre string, fetcher httputil.Fetcher) ([]media.Item, error) {
	listURL := fmt.Sprintf("https://%s/genre/%s", a.host, httputil.EncodeQuery(genre))
	body, err := fetcher.Fetch(ctx, listURL, nil)
	if err != nil {
		return nil, classifyFetchErr(a.id, err)
	}

	items, err := parseListing(string(body))
	if err != nil {
		return nil, parseErr(a.id, fmt.Errorf("parsing genre listing: %w", err))
	}

	for i := range items {
		if items[i].Year != "" {
			continue
		}
		detailURL := fmt.Sprintf("https://%s/%s", a.host, items[i].Slug)
		detail, err := fetcher.Fetch(ctx, detailURL, nil)
		if err != nil {
			continue // detail enrichment is best-effort
		}
		if y := yearFromDetail(string(detail)); y != "" {
			items[i].Year = y
			items[i].Descriptor.Year = y
		}
	}
	return items, nil
}

// yearFromDetail pulls the release year out of a detail page's meta block.
func yearFromDetail(html string) string {
	const marker = `<span class="release-year">`
	idx := strings.Index(html, marker)
	if idx == -1 {
		return ""
	}
	rest := html[idx+len(marker):]
	end := strings.Index(rest, "<")
	if end == -1 || end == 0 {
		return ""
	}
	year := strings.TrimSpace(rest[:end])
	if _, err := strconv.Atoi(year); err != nil || len(year) != 4 {
		return ""
	}
	return year
}
