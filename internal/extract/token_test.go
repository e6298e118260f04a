package extract

import "testing"

func TestSessionToken(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    string
		wantErr bool
	}{
		{
			"meta tag form",
			`<html><head><meta name="_st_tk" content="aB3xYz9"></head></html>`,
			"aB3xYz9",
			false,
		},
		{
			"comment form",
			"<html><body><!-- _sess:q8Km2Lp --></body></html>",
			"q8Km2Lp",
			false,
		},
		{
			"window var form",
			`<script>window._st = "Tk41Vv";</script>`,
			"Tk41Vv",
			false,
		},
		{
			"div attribute form",
			`<div data-tk="Zz77Qq" class="hidden"></div>`,
			"Zz77Qq",
			false,
		},
		{
			"no pattern present",
			`<html><body>plain page</body></html>`,
			"",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SessionToken(tt.html)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SessionToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SessionToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionTokenFirstPatternWins(t *testing.T) {
	html := `<meta name="_st_tk" content="fromMeta"><div data-tk="fromDiv"></div>`
	got, err := SessionToken(html)
	if err != nil {
		t.Fatalf("SessionToken() error = %v", err)
	}
	if got != "fromMeta" {
		t.Errorf("SessionToken() = %q, want the meta form to win", got)
	}
}
