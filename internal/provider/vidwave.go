package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"sluice/internal/extract"
	"sluice/internal/httputil"
	"sluice/internal/media"
)

// Vidwave scrapes an HTML mirror family (vidwave, streamvault, primeflux).
// The site lists embed servers per title; each server ID is exchanged for an
// embed link via an ajax endpoint, and the embed page hides a session token
// required by its getSources endpoint.
type Vidwave struct {
	id   string
	host string
}

// NewVidwave creates an adapter for one mirror of the vidwave family.
func NewVidwave(id, host string) *Vidwave {
	return &Vidwave{id: id, host: host}
}

func (v *Vidwave) ID() string { return v.id }

func (v *Vidwave) baseURL() string {
	return "https://" + v.host
}

// Resolve fetches the server list for the descriptor and maps it into embed
// candidates, one per distinct embed technology.
func (v *Vidwave) Resolve(ctx context.Context, desc media.Descriptor, fetcher httputil.Fetcher) (Result, error) {
	var serversURL string
	if desc.IsShow() {
		if desc.Episode == nil {
			return Result{}, parseErr(v.id, fmt.Errorf("show descriptor without episode"))
		}
		if err := httputil.ValidateID(desc.Episode.ExternalID); err != nil {
			return Result{}, parseErr(v.id, fmt.Errorf("invalid episode ID: %w", err))
		}
		serversURL = httputil.BuildURL(v.baseURL(), "ajax", "episode", "servers", desc.Episode.ExternalID)
	} else {
		if err := httputil.ValidateID(desc.ExternalID); err != nil {
			return Result{}, parseErr(v.id, fmt.Errorf("invalid content ID: %w", err))
		}
		serversURL = httputil.BuildURL(v.baseURL(), "ajax", "movie", "servers", desc.ExternalID)
	}

	body, err := fetcher.Fetch(ctx, serversURL, nil)
	if err != nil {
		return Result{}, classifyFetchErr(v.id, err)
	}

	servers, err := parseServers(string(body))
	if err != nil {
		// Malformed top-level payload fails softly.
		return Result{}, nil
	}

	cands := make([]media.EmbedCandidate, 0, len(servers))
	for _, s := range servers {
		cands = append(cands, media.EmbedCandidate{
			ProviderID: v.id,
			OpaqueKey:  s.Key,
			Label:      strings.ToLower(s.Name),
		})
	}
	return Result{Embeds: dedupeByLabel(cands)}, nil
}

// Exchange swaps a server ID for the raw sources payload: server ID → embed
// link → embed page → getSources body. The last hop only happens when the
// embed page carries a session token; older mirrors inline the sources in
// the page itself.
func (v *Vidwave) Exchange(ctx context.Context, cand media.EmbedCandidate, fetcher httputil.Fetcher) (string, error) {
	if err := httputil.ValidateID(cand.OpaqueKey); err != nil {
		return "", parseErr(v.id, fmt.Errorf("invalid server key: %w", err))
	}

	linkURL := httputil.BuildURL(v.baseURL(), "ajax", "sources", cand.OpaqueKey)
	body, err := fetcher.Fetch(ctx, linkURL, nil)
	if err != nil {
		return "", classifyFetchErr(v.id, err)
	}

	var link struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(body, &link); err != nil {
		return "", parseErr(v.id, fmt.Errorf("parsing embed link response: %w", err))
	}
	if link.Link == "" {
		return "", parseErr(v.id, fmt.Errorf("no embed link for server %s", cand.OpaqueKey))
	}

	embedBody, err := fetcher.Fetch(ctx, link.Link, map[string]string{"Referer": v.baseURL() + "/"})
	if err != nil {
		return "", classifyFetchErr(v.id, err)
	}

	token, err := extract.SessionToken(string(embedBody))
	if err != nil {
		// No token: the page body itself is the extraction input.
		return string(embedBody), nil
	}

	sourcesURL, err := embedSourcesURL(link.Link, token)
	if err != nil {
		return "", parseErr(v.id, err)
	}
	sourcesBody, err := fetcher.Fetch(ctx, sourcesURL, map[string]string{
		"Referer":          link.Link,
		"X-Requested-With": "XMLHttpRequest",
	})
	if err != nil {
		return "", classifyFetchErr(v.id, err)
	}
	return string(sourcesBody), nil
}

// embedSourcesURL builds the getSources endpoint for an embed link.
// Example: https://cdn.example/e/AbCdEf → https://cdn.example/e/getSources?id=AbCdEf&tk=...
func embedSourcesURL(embedLink, token string) (string, error) {
	u, err := url.Parse(embedLink)
	if err != nil {
		return "", fmt.Errorf("parsing embed link: %w", err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[len(segments)-1] == "" {
		return "", fmt.Errorf("embed link %q has no source ID", embedLink)
	}
	sourceID := segments[len(segments)-1]
	prefix := strings.Join(segments[:len(segments)-1], "/")
	if prefix != "" {
		prefix = "/" + prefix
	}
	return fmt.Sprintf("https://%s%s/getSources?id=%s&tk=%s",
		u.Host, prefix, url.QueryEscape(sourceID), url.QueryEscape(token)), nil
}

// List implements Catalog using the mirror's genre listing pages.
func (v *Vidwave) List(ctx context.Context, genre string, fetcher httputil.Fetcher) ([]media.Item, error) {
	listURL := fmt.Sprintf("%s/genre/%s", v.baseURL(), httputil.EncodeQuery(genre))
	body, err := fetcher.Fetch(ctx, listURL, nil)
	if err != nil {
		return nil, classifyFetchErr(v.id, err)
	}

	items, err := parseListing(string(body))
	if err != nil {
		return nil, parseErr(v.id, fmt.Errorf("parsing genre listing: %w", err))
	}
	return items, nil
}
