package extract

import "testing"

func TestPickBest(t *testing.T) {
	tests := []struct {
		name      string
		qualities map[string]string
		want      string
	}{
		{"prefers 1080 over 720", map[string]string{"720": "a", "1080": "b"}, "b"},
		{"empty map", map[string]string{}, ""},
		{"nil map", nil, ""},
		{"single low tier", map[string]string{"360": "x"}, "x"},
		{"4k wins", map[string]string{"1080": "a", "2160": "uhd", "480": "c"}, "uhd"},
		{"auto as last resort", map[string]string{"auto": "fallback"}, "fallback"},
		{"unknown tiers only", map[string]string{"potato": "p"}, ""},
		{"skips empty urls", map[string]string{"1080": "", "720": "sd"}, "sd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickBest(tt.qualities); got != tt.want {
				t.Errorf("PickBest(%v) = %q, want %q", tt.qualities, got, tt.want)
			}
		})
	}
}

// PickBest must not depend on map insertion order: insert tiers in every
// rotation and expect the same winner.
func TestPickBestOrderIndependent(t *testing.T) {
	tiers := []string{"360", "720", "1080"}
	for start := range tiers {
		m := make(map[string]string)
		for i := range tiers {
			tier := tiers[(start+i)%len(tiers)]
			m[tier] = "url-" + tier
		}
		if got := PickBest(m); got != "url-1080" {
			t.Errorf("rotation %d: PickBest = %q, want url-1080", start, got)
		}
	}
}
