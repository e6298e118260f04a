package media

import "testing"

func TestDescriptorKey(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
		want string
	}{
		{
			"movie",
			Descriptor{Type: Movie, ExternalID: "m-75043"},
			"movie/m-75043",
		},
		{
			"episode",
			Descriptor{
				Type:       Show,
				ExternalID: "s-39516",
				Season:     &Season{Number: 2},
				Episode:    &Episode{Number: 13},
			},
			"show/s-39516/s2/e13",
		},
		{
			"season only",
			Descriptor{Type: Show, ExternalID: "s-1", Season: &Season{Number: 1}},
			"show/s-1/s1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.desc.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	if ParseType("tv") != Show {
		t.Error(`ParseType("tv") should map to Show`)
	}
	if ParseType("show") != Show {
		t.Error(`ParseType("show") should map to Show`)
	}
	if ParseType("movie") != Movie {
		t.Error(`ParseType("movie") should map to Movie`)
	}
	if ParseType("") != Movie {
		t.Error("empty type should default to Movie")
	}
}

func TestFormatString(t *testing.T) {
	if FormatAdaptivePlaylist.String() != "hls" {
		t.Errorf("hls format = %q", FormatAdaptivePlaylist.String())
	}
	if FormatUnknown.String() != "unknown" {
		t.Errorf("unknown format = %q", FormatUnknown.String())
	}
}

func TestItemResolved(t *testing.T) {
	item := Item{Key: "movie/1", Title: "Dune"}
	if item.Resolved() {
		t.Error("metadata-only item should not report resolved")
	}
	item.Stream = &ResolvedStream{URL: "https://cdn.example/master.m3u8", Format: FormatAdaptivePlaylist}
	if !item.Resolved() {
		t.Error("item with stream should report resolved")
	}
}
