// Package media defines the shared types for the sluice resolution engine.
package media

import "strconv"

// Type represents whether content is a movie or a show.
type Type int

const (
	Movie Type = iota
	Show
)

func (t Type) String() string {
	switch t {
	case Movie:
		return "movie"
	case Show:
		return "show"
	default:
		return "unknown"
	}
}

// ParseType maps the wire form ("movie" / "show", with "tv" accepted as an
// alias) back to a Type. Unknown values default to Movie.
func ParseType(s string) Type {
	switch s {
	case "show", "tv":
		return Show
	default:
		return Movie
	}
}

// Season identifies one season of a show.
type Season struct {
	Number       int
	ExternalID   string
	Title        string
	EpisodeCount int
}

// Episode identifies one episode within a season.
type Episode struct {
	Number     int
	ExternalID string
}

// Descriptor identifies the piece of media a caller wants resolved.
// It is constructed once per resolution request and never mutated.
// Season and Episode are only set for Show descriptors.
type Descriptor struct {
	Type       Type
	Title      string
	ExternalID string
	ImdbID     string
	Year       string
	Season     *Season
	Episode    *Episode
}

// IsShow reports whether the descriptor targets a show episode.
func (d Descriptor) IsShow() bool {
	return d.Type == Show
}

// Key returns a stable identity for the descriptor, usable as a map key.
func (d Descriptor) Key() string {
	key := d.Type.String() + "/" + d.ExternalID
	if d.Season != nil {
		key += "/s" + strconv.Itoa(d.Season.Number)
	}
	if d.Episode != nil {
		key += "/e" + strconv.Itoa(d.Episode.Number)
	}
	return key
}

// EmbedCandidate is an intermediate reference produced by a provider that
// must be exchanged for a playable stream via one more fetch. Candidates
// live only for the duration of a single resolution attempt.
type EmbedCandidate struct {
	ProviderID string
	OpaqueKey  string
	Label      string // embed technology name, e.g. "vidcloud"
}

// Format tags the kind of stream a URL points at.
type Format int

const (
	FormatUnknown Format = iota
	FormatFile
	FormatAdaptivePlaylist  // HLS .m3u8
	FormatSegmentedManifest // DASH .mpd
)

func (f Format) String() string {
	switch f {
	case FormatFile:
		return "file"
	case FormatAdaptivePlaylist:
		return "hls"
	case FormatSegmentedManifest:
		return "dash"
	default:
		return "unknown"
	}
}

// Subtitle represents a caption track exposed by a provider.
type Subtitle struct {
	Language string
	Label    string
	URL      string
}

// ResolvedStream is the terminal output of a resolution: a playable URL,
// its format, and any headers required to fetch it. URL is always non-empty
// and Format is never FormatUnknown on a stream returned to a caller.
type ResolvedStream struct {
	URL        string
	Format     Format
	Qualities  map[string]string // quality tier -> URL, when the provider offers renditions
	Headers    map[string]string
	Subtitles  []Subtitle
	ProviderID string
}

// Item is one entry of a cache bucket: either metadata-only (no stream yet)
// or fully resolved. The identity key is stable across the transition so UI
// bindings survive lazy resolution.
type Item struct {
	Key        string
	Title      string
	Year       string
	Slug       string
	Descriptor Descriptor
	Stream     *ResolvedStream
}

// Resolved reports whether the item has been promoted to a playable stream.
func (i Item) Resolved() bool {
	return i.Stream != nil
}
