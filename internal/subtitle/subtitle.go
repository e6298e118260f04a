// Package subtitle filters and orders the subtitle tracks a provider
// reports alongside a resolved stream.
package subtitle

import (
	"strings"

	"sluice/internal/media"
)

// Filter returns subtitles matching the preferred language (case-insensitive).
func Filter(subtitles []media.Subtitle, language string) []media.Subtitle {
	if language == "" {
		return subtitles
	}

	lang := strings.ToLower(language)
	var matched []media.Subtitle

	for _, sub := range subtitles {
		if strings.Contains(strings.ToLower(sub.Language), lang) ||
			strings.Contains(strings.ToLower(sub.Label), lang) {
			matched = append(matched, sub)
		}
	}

	return matched
}

// BestMatch returns the best matching subtitle for the given language.
// Prefers a non-SDH track when one exists, then falls back to the first
// language match.
func BestMatch(subtitles []media.Subtitle, language string) *media.Subtitle {
	filtered := Filter(subtitles, language)
	if len(filtered) == 0 {
		return nil
	}

	lang := strings.ToLower(language)
	for _, sub := range filtered {
		label := strings.ToLower(sub.Label)
		if strings.Contains(label, lang) && !strings.Contains(label, "sdh") {
			return &sub
		}
	}

	return &filtered[0]
}

// Prioritize reorders tracks so the best match for language comes first,
// leaving the rest in their reported order. Players that take the first
// track by default then pick up the preferred language automatically.
func Prioritize(subtitles []media.Subtitle, language string) []media.Subtitle {
	best := BestMatch(subtitles, language)
	if best == nil {
		return subtitles
	}

	out := make([]media.Subtitle, 0, len(subtitles))
	out = append(out, *best)
	for _, sub := range subtitles {
		if sub.URL != best.URL || sub.Label != best.Label {
			out = append(out, sub)
		}
	}
	return out
}
