package extract

import (
	"testing"

	"sluice/internal/media"
)

func TestExtractBareURL(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantURL    string
		wantFormat media.Format
	}{
		{
			"bare hls url",
			"https://cdn.example/streams/master.m3u8",
			"https://cdn.example/streams/master.m3u8",
			media.FormatAdaptivePlaylist,
		},
		{
			"bare mp4 with whitespace padding",
			"  https://cdn.example/v/movie.mp4\n",
			"https://cdn.example/v/movie.mp4",
			media.FormatFile,
		},
		{
			"bare dash url",
			"https://cdn.example/v/manifest.mpd",
			"https://cdn.example/v/manifest.mpd",
			media.FormatSegmentedManifest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.body)
			if got == nil {
				t.Fatal("Extract() = nil, want stream")
			}
			if got.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.URL, tt.wantURL)
			}
			if got.Format != tt.wantFormat {
				t.Errorf("Format = %v, want %v", got.Format, tt.wantFormat)
			}
		})
	}
}

func TestExtractStructured(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantURL    string
		wantFormat media.Format
	}{
		{
			"top-level file field",
			`{"file": "https://cdn.example/hls/index.m3u8", "label": "HD"}`,
			"https://cdn.example/hls/index.m3u8",
			media.FormatAdaptivePlaylist,
		},
		{
			"link field",
			`{"type": "iframe", "link": "https://cdn.example/v/clip.mp4"}`,
			"https://cdn.example/v/clip.mp4",
			media.FormatFile,
		},
		{
			"sources array",
			`{"sources": [{"file": "https://cdn.example/x/out.m3u8", "type": "hls"}], "tracks": []}`,
			"https://cdn.example/x/out.m3u8",
			media.FormatAdaptivePlaylist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.body)
			if got == nil {
				t.Fatal("Extract() = nil, want stream")
			}
			if got.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.URL, tt.wantURL)
			}
			if got.Format != tt.wantFormat {
				t.Errorf("Format = %v, want %v", got.Format, tt.wantFormat)
			}
		})
	}
}

func TestExtractPatternsInBlobs(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantURL    string
		wantFormat media.Format
	}{
		{
			"file url inside html",
			`<html><body><video src=https://cdn.example/dl/movie-720.mp4></video></body></html>`,
			"https://cdn.example/dl/movie-720.mp4",
			media.FormatFile,
		},
		{
			"hls url inside player script",
			`var player = jwplayer("el"); player.setup({sources:[hlsUrl]}); var hlsUrl = https://edge.example/live/abc/playlist.m3u8?token=xyz;`,
			"https://edge.example/live/abc/playlist.m3u8?token=xyz",
			media.FormatAdaptivePlaylist,
		},
		{
			"dash manifest inside blob",
			`window.config = { dash: https://cdn.example/d/stream.mpd };`,
			"https://cdn.example/d/stream.mpd",
			media.FormatSegmentedManifest,
		},
		{
			"quoted url in script blob",
			`eval(function(p,a,c,k){...}('x.src="https://vault.example/media/ep-04.webm";',5,5))`,
			"https://vault.example/media/ep-04.webm",
			media.FormatFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.body)
			if got == nil {
				t.Fatal("Extract() = nil, want stream")
			}
			if got.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.URL, tt.wantURL)
			}
			if got.Format != tt.wantFormat {
				t.Errorf("Format = %v, want %v", got.Format, tt.wantFormat)
			}
		})
	}
}

func TestExtractMiss(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"plain text", "nothing to see here"},
		{"json without url fields", `{"status": "ok", "count": 3}`},
		{"url with unknown extension", "https://cdn.example/stream/unknown.bin"},
		{"relative path only", `{"file": "/local/path.m3u8"}`},
		{"html without media urls", `<html><body><a href="https://example.com/page">link</a></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.body); got != nil {
				t.Errorf("Extract() = %+v, want nil", got)
			}
		})
	}
}

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		url  string
		want media.Format
	}{
		{"https://a/x.m3u8", media.FormatAdaptivePlaylist},
		{"https://a/x.m3u8?sig=1", media.FormatAdaptivePlaylist},
		{"https://a/x.mpd", media.FormatSegmentedManifest},
		{"https://a/x.mp4", media.FormatFile},
		{"https://a/x.MKV", media.FormatFile},
		{"https://a/x", media.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ClassifyURL(tt.url); got != tt.want {
				t.Errorf("ClassifyURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
