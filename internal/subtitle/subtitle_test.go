package subtitle

import (
	"testing"

	"sluice/internal/media"
)

func TestFilter(t *testing.T) {
	subs := []media.Subtitle{
		{Language: "English", Label: "English"},
		{Language: "English", Label: "English - SDH"},
		{Language: "Spanish", Label: "Spanish"},
		{Language: "French", Label: "French"},
	}

	tests := []struct {
		lang     string
		expected int
	}{
		{"english", 2},
		{"spanish", 1},
		{"french", 1},
		{"german", 0},
		{"", 4},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got := Filter(subs, tt.lang)
			if len(got) != tt.expected {
				t.Errorf("Filter(%q) returned %d subs, want %d", tt.lang, len(got), tt.expected)
			}
		})
	}
}

func TestBestMatch(t *testing.T) {
	subs := []media.Subtitle{
		{Language: "English", Label: "English - SDH", URL: "https://cdn.example/sdh.vtt"},
		{Language: "English", Label: "English", URL: "https://cdn.example/en.vtt"},
		{Language: "Spanish", Label: "Spanish", URL: "https://cdn.example/es.vtt"},
	}

	best := BestMatch(subs, "english")
	if best == nil {
		t.Fatal("BestMatch returned nil for english")
	}
	if best.Label != "English" {
		t.Errorf("BestMatch preferred %q, want the non-SDH track", best.Label)
	}

	best = BestMatch(subs, "spanish")
	if best == nil {
		t.Fatal("BestMatch returned nil for spanish")
	}
	if best.Language != "Spanish" {
		t.Errorf("got language %q, want Spanish", best.Language)
	}

	if best := BestMatch(subs, "japanese"); best != nil {
		t.Error("BestMatch should return nil for unmatched language")
	}
}

func TestPrioritize(t *testing.T) {
	subs := []media.Subtitle{
		{Language: "Spanish", Label: "Spanish", URL: "https://cdn.example/es.vtt"},
		{Language: "English", Label: "English", URL: "https://cdn.example/en.vtt"},
		{Language: "French", Label: "French", URL: "https://cdn.example/fr.vtt"},
	}

	got := Prioritize(subs, "english")
	if len(got) != 3 {
		t.Fatalf("Prioritize() len = %d, want 3", len(got))
	}
	if got[0].Label != "English" {
		t.Errorf("first track = %q, want English", got[0].Label)
	}
	if got[1].Label != "Spanish" || got[2].Label != "French" {
		t.Errorf("remaining order disturbed: %+v", got)
	}

	// No match leaves the list untouched.
	got = Prioritize(subs, "german")
	if got[0].Label != "Spanish" {
		t.Errorf("unmatched language should not reorder, got %+v", got)
	}
}
