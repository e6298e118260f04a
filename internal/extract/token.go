package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Embed hosts hide the session token needed by their sources endpoint using
// rotating obfuscation methods. Patterns are tried in order:
//  0: <meta name="_st_tk" content="{TOKEN}">
//  1: <!-- _sess:{TOKEN} -->
//  2: <script>window._st = "{TOKEN}";</script>
//  3: <div data-tk="{TOKEN}" ...></div>
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<meta name="_st_tk" content="[a-zA-Z0-9]+">`),
	regexp.MustCompile(`<!--\s+_sess:[0-9a-zA-Z]+\s+-->`),
	regexp.MustCompile(`<script>window\._st = ['"][0-9a-zA-Z]+['"];</script>`),
	regexp.MustCompile(`<div\s+data-tk="[0-9a-zA-Z]+"\s*[^>]*></div>`),
}

var quotedValue = regexp.MustCompile(`"[a-zA-Z0-9]+"`)

// SessionToken extracts the embed session token from an embed page body.
func SessionToken(html string) (string, error) {
	match := ""
	matchIdx := -1
	for i, pat := range tokenPatterns {
		if m := pat.FindString(html); m != "" {
			match = m
			matchIdx = i
			break
		}
	}
	if matchIdx == -1 {
		return "", fmt.Errorf("no session token pattern matched")
	}

	if matchIdx == 1 {
		// Comment form has no quotes around the token.
		re := regexp.MustCompile(`:[a-zA-Z0-9]+ `)
		m := re.FindString(match)
		if m == "" {
			return "", fmt.Errorf("malformed comment token")
		}
		return strings.TrimSpace(strings.TrimPrefix(m, ":")), nil
	}

	if matchIdx == 2 {
		re := regexp.MustCompile(`['"][a-zA-Z0-9]+['"]`)
		m := re.FindString(match)
		if m == "" {
			return "", fmt.Errorf("malformed script token")
		}
		return strings.Trim(m, `'"`), nil
	}

	// Meta and div forms both carry the token as the value of a named
	// attribute; skip past the attribute name before grabbing the quoted value.
	attr := `content=`
	if matchIdx == 3 {
		attr = `data-tk=`
	}
	idx := strings.Index(match, attr)
	if idx == -1 {
		return "", fmt.Errorf("token attribute not found")
	}
	val := quotedValue.FindString(match[idx:])
	if val == "" {
		return "", fmt.Errorf("token value not found")
	}
	return strings.Trim(val, `"`), nil
}
