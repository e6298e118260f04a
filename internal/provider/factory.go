package provider

import (
	"context"

	"sluice/internal/httputil"
	"sluice/internal/media"
)

// Catalog is implemented by providers that expose browsable listings; the
// prefetch filler uses it to fetch metadata-only items per genre bucket.
type Catalog interface {
	List(ctx context.Context, genre string, fetcher httputil.Fetcher) ([]media.Item, error)
}

// defaultHosts maps every catalogue ID to its upstream host. Several IDs are
// mirrors: a different host behind a shared adapter implementation.
var defaultHosts = map[string]string{
	"vidwave":     "vidwave.to",
	"streamvault": "streamvault.ru",
	"primeflux":   "primeflux.net",
	"novafilm":    "api.novafilm.cc",
	"cinepulse":   "cinepulse.watch",
	"animux":      "animux.live",
	"octostream":  "octostream.io",
	"mirrorcast":  "mirrorcast.cam",
	"otakustream": "otakustream.moe",
	"embedpark":   "embedpark.site",
	"zenembed":    "zenembed.xyz",
	"aniwave":     "aniwave.se",
}

// ForID constructs the adapter for a catalogue ID. overrides lets deployments
// repoint a provider at a fresh mirror host without a rebuild.
func ForID(id string, overrides map[string]string) (Adapter, bool) {
	host, ok := defaultHosts[id]
	if !ok {
		return nil, false
	}
	if o := overrides[id]; o != "" {
		host = o
	}

	switch id {
	case "vidwave", "streamvault", "primeflux":
		return NewVidwave(id, host), true
	case "novafilm", "cinepulse", "animux":
		return NewNovafilm(id, host), true
	case "octostream", "mirrorcast", "otakustream":
		return NewOctostream(id, host), true
	case "embedpark", "zenembed":
		return NewEmbedpark(id, host), true
	case "aniwave":
		return NewAniwave(id, host), true
	default:
		return nil, false
	}
}

// CatalogForID returns the listing capability for an ID, when the adapter
// has one.
func CatalogForID(id string, overrides map[string]string) (Catalog, bool) {
	a, ok := ForID(id, overrides)
	if !ok {
		return nil, false
	}
	c, ok := a.(Catalog)
	return c, ok
}
