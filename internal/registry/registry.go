// Package registry holds the static catalogue of upstream providers and
// computes the per-request attempt order.
package registry

import (
	"github.com/samber/lo"
)

// Capability flags describe what a provider can do; the orchestrator and
// cache filler use them to route work.
type Capability uint8

const (
	// CapEmbeds means the provider returns embed candidates that need a
	// second exchange fetch.
	CapEmbeds Capability = 1 << iota
	// CapDirect means the provider returns a fully resolved stream itself.
	CapDirect
	// CapCatalog means the provider exposes browsable listings (used by the
	// prefetch filler).
	CapCatalog
	// CapAnime marks anime-focused providers.
	CapAnime
)

// Spec describes one provider in the catalogue. Specs are static; nothing
// mutates them at runtime.
type Spec struct {
	ID           string
	Rank         int
	Capabilities Capability
}

// Has reports whether the spec carries the given capability.
func (s Spec) Has(c Capability) bool {
	return s.Capabilities&c != 0
}

// catalogue is the full provider list in fixed rank order. Several IDs are
// mirrors sharing an adapter implementation with a different host.
var catalogue = []Spec{
	{ID: "vidwave", Rank: 1, Capabilities: CapEmbeds | CapCatalog},
	{ID: "novafilm", Rank: 2, Capabilities: CapDirect},
	{ID: "octostream", Rank: 3, Capabilities: CapEmbeds},
	{ID: "streamvault", Rank: 4, Capabilities: CapEmbeds | CapCatalog},
	{ID: "embedpark", Rank: 5, Capabilities: CapDirect},
	{ID: "cinepulse", Rank: 6, Capabilities: CapDirect},
	{ID: "mirrorcast", Rank: 7, Capabilities: CapEmbeds},
	{ID: "zenembed", Rank: 8, Capabilities: CapDirect},
	{ID: "aniwave", Rank: 9, Capabilities: CapEmbeds | CapCatalog | CapAnime},
	{ID: "otakustream", Rank: 10, Capabilities: CapEmbeds | CapAnime},
	{ID: "animux", Rank: 11, Capabilities: CapDirect | CapAnime},
	{ID: "primeflux", Rank: 12, Capabilities: CapEmbeds},
}

// Priority profiles: a small subset of IDs tried first for a content type.
var (
	generalProfile = []string{"vidwave", "novafilm", "octostream"}
	animeProfile   = []string{"aniwave", "otakustream", "animux"}
)

// Hint is the coarse content classification used only to reorder attempts.
type Hint int

const (
	HintGeneral Hint = iota
	HintAnime
)

// ParseHint maps the wire form to a Hint; unknown or empty defaults to general.
func ParseHint(s string) Hint {
	switch s {
	case "anime", "animation":
		return HintAnime
	default:
		return HintGeneral
	}
}

// Catalogue returns the full provider list in rank order.
func Catalogue() []Spec {
	out := make([]Spec, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup returns the spec for an ID, if present.
func Lookup(id string) (Spec, bool) {
	return lo.Find(catalogue, func(s Spec) bool { return s.ID == id })
}

// BuildAttemptOrder produces the ordered provider ID list for one resolution
// attempt. It is pure: no I/O, no randomness, same output for the same hint.
//
// The selected profile goes first, then the rest of the catalogue in rank
// order minus the other profile's IDs (cross-profile exclusion: general
// mirrors rarely carry niche content and vice versa). A niche request still
// falls back to general coverage at the very end.
func BuildAttemptOrder(hint Hint) []string {
	profile, other := generalProfile, animeProfile
	if hint == HintAnime {
		profile, other = animeProfile, generalProfile
	}

	order := make([]string, 0, len(catalogue))
	order = append(order, profile...)

	for _, spec := range catalogue {
		if lo.Contains(profile, spec.ID) || lo.Contains(other, spec.ID) {
			continue
		}
		order = append(order, spec.ID)
	}

	if hint == HintAnime {
		order = append(order, other...)
	}

	return lo.Uniq(order)
}
