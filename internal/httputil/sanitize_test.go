package httputil

import (
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https", "https://example.com/path", false},
		{"http rejected", "http://example.com", true},
		{"no host", "https://", true},
		{"garbage", "://not-a-url", true},
		{"javascript scheme", "javascript:alert(1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "movie/free-the-exorcist-hd-75043", false},
		{"numeric", "12345", false},
		{"empty", "", true},
		{"shell injection", "; rm -rf /", true},
		{"path traversal", "a/../b", true},
		{"too long", strings.Repeat("a", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNumericID(t *testing.T) {
	if err := ValidateNumericID("75043"); err != nil {
		t.Errorf("numeric ID rejected: %v", err)
	}
	if err := ValidateNumericID("75043a"); err == nil {
		t.Error("alphanumeric ID accepted as numeric")
	}
	if err := ValidateNumericID(""); err == nil {
		t.Error("empty numeric ID accepted")
	}
}

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"star wars", "star-wars"},
		{"  breaking   bad  ", "breaking-bad"},
		{"dune", "dune"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := EncodeQuery(tt.input); got != tt.expected {
				t.Errorf("EncodeQuery(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildURL(t *testing.T) {
	got := BuildURL("https://example.com/", "ajax", "episode sources", "99")
	want := "https://example.com/ajax/episode%20sources/99"
	if got != want {
		t.Errorf("BuildURL = %q, want %q", got, want)
	}
}
