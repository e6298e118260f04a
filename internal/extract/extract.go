// Package extract turns raw upstream response bodies of unknown shape into
// resolved streams. Every function here is pure over the body string; all
// network I/O stays in the provider adapters.
package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"sluice/internal/media"
)

// Known key names carrying a stream URL in structured provider payloads.
var urlKeys = []string{"file", "url", "src", "source", "link", "stream"}

var (
	fileURLPattern   = regexp.MustCompile(`https?://[^\s"'<>\\;)}\]]+\.(?:mp4|mkv|avi|webm|mov)(?:\?[^\s"'<>\\;)}\]]*)?`)
	hlsURLPattern    = regexp.MustCompile(`https?://[^\s"'<>\\;)}\]]+\.m3u8(?:\?[^\s"'<>\\;)}\]]*)?`)
	dashURLPattern   = regexp.MustCompile(`https?://[^\s"'<>\\;)}\]]+\.mpd(?:\?[^\s"'<>\\;)}\]]*)?`)
	quotedURLPattern = regexp.MustCompile(`["'](https?://[^"']+\.(?:mp4|mkv|avi|webm|mov|m3u8|mpd)(?:\?[^"']*)?)["']`)
)

// Extract applies the ordered heuristic chain to a response body and returns
// the first match tagged with its format, or nil when nothing matched.
// A nil result is a normal miss, not an error; callers move on to the next
// candidate.
func Extract(rawBody string) *media.ResolvedStream {
	body := strings.TrimSpace(rawBody)
	if body == "" {
		return nil
	}

	if s := extractBareURL(body); s != nil {
		return s
	}
	if s := extractStructured(body); s != nil {
		return s
	}
	if m := fileURLPattern.FindString(body); m != "" {
		return tagged(m)
	}
	if m := hlsURLPattern.FindString(body); m != "" {
		return tagged(m)
	}
	if m := dashURLPattern.FindString(body); m != "" {
		return tagged(m)
	}
	if m := quotedURLPattern.FindStringSubmatch(body); m != nil {
		return tagged(m[1])
	}

	return nil
}

// extractBareURL accepts a body that is itself a single URL string.
func extractBareURL(body string) *media.ResolvedStream {
	if strings.ContainsAny(body, " \t\n") {
		return nil
	}
	u, err := url.Parse(body)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}
	return tagged(body)
}

// extractStructured parses the body as JSON and looks for a canonical URL
// field, either at the top level or on the first element of a "sources"
// array.
func extractStructured(body string) *media.ResolvedStream {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil
	}

	if s := urlFromFields(parsed); s != nil {
		return s
	}

	if raw, ok := parsed["sources"]; ok {
		if list := cast.ToSlice(raw); len(list) > 0 {
			if first := cast.ToStringMap(list[0]); first != nil {
				return urlFromFields(first)
			}
		}
	}

	return nil
}

func urlFromFields(fields map[string]any) *media.ResolvedStream {
	for _, key := range urlKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		candidate := cast.ToString(raw)
		if candidate == "" || !strings.HasPrefix(candidate, "http") {
			continue
		}
		return tagged(candidate)
	}
	return nil
}

// tagged wraps a URL in a ResolvedStream with its classified format.
// URLs with no recognizable extension are treated as a miss rather than
// returned with an unknown format.
func tagged(streamURL string) *media.ResolvedStream {
	format := ClassifyURL(streamURL)
	if format == media.FormatUnknown {
		return nil
	}
	return &media.ResolvedStream{URL: streamURL, Format: format}
}

// ClassifyURL tags a URL by the media container its path points at.
func ClassifyURL(streamURL string) media.Format {
	path := streamURL
	if u, err := url.Parse(streamURL); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.ToLower(path)

	switch {
	case strings.HasSuffix(path, ".m3u8"):
		return media.FormatAdaptivePlaylist
	case strings.HasSuffix(path, ".mpd"):
		return media.FormatSegmentedManifest
	case strings.HasSuffix(path, ".mp4"),
		strings.HasSuffix(path, ".mkv"),
		strings.HasSuffix(path, ".avi"),
		strings.HasSuffix(path, ".webm"),
		strings.HasSuffix(path, ".mov"):
		return media.FormatFile
	default:
		return media.FormatUnknown
	}
}
