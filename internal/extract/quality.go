package extract

// qualityPreference is the fixed tier order from highest to lowest. The
// selector walks this list, never the map, so map iteration order can't
// affect the result.
var qualityPreference = []string{"2160", "1440", "1080", "720", "480", "360", "auto"}

// PickBest returns the URL for the highest-quality tier present in the map,
// or "" when the map is empty or holds no known tier (callers fall back to
// the stream's single URL).
func PickBest(qualities map[string]string) string {
	if len(qualities) == 0 {
		return ""
	}
	for _, tier := range qualityPreference {
		if u, ok := qualities[tier]; ok && u != "" {
			return u
		}
	}
	return ""
}
