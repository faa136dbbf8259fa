package markdown

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const fence = "```"

var (
	emphasisRe = regexp.MustCompile(`\*\*([^*\n]+)\*\*|__([^_\n]+)__`)
	headingRe  = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
)

// StripFences removes code fences a model wraps around its answer,
// including the info string (```html) and any stray fence lines left
// inside the text.
func StripFences(input string) string {
	text := strings.TrimSpace(input)
	if !strings.Contains(text, fence) {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.ReplaceAll(strings.Join(kept, "\n"), fence, ""))
}

// StripEmphasis drops markdown emphasis markers and heading hashes while
// keeping their text. Only character data is touched, so tags and
// attribute values such as hrefs come out byte for byte.
func StripEmphasis(input string) string {
	return mapText(input, func(text string, lineStart bool) string {
		return stripHeadings(emphasisRe.ReplaceAllString(text, "$1$2"), lineStart)
	})
}

// HasArtifacts reports markdown syntax that has no place in HTML output.
// Markup is not inspected.
func HasArtifacts(input string) bool {
	found := false
	mapText(input, func(text string, lineStart bool) string {
		if found {
			return text
		}
		found = strings.Contains(text, fence) ||
			emphasisRe.MatchString(text) ||
			stripHeadings(text, lineStart) != text

		return text
	})

	return found
}

// mapText rewrites the character data of an HTML fragment with fn and copies
// every other token through unchanged. lineStart reports whether the text
// begins a line of the input.
func mapText(input string, fn func(text string, lineStart bool) string) string {
	z := html.NewTokenizer(strings.NewReader(input))

	var b strings.Builder
	b.Grow(len(input))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}

		raw := string(z.Raw())
		if tt == html.TextToken {
			out := b.String()
			raw = fn(raw, out == "" || strings.HasSuffix(out, "\n"))
		}
		b.WriteString(raw)
	}
}

func stripHeadings(text string, lineStart bool) string {
	if lineStart {
		return headingRe.ReplaceAllString(text, "")
	}

	// The first line continues markup that precedes it.
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return text
	}

	return text[:i+1] + headingRe.ReplaceAllString(text[i+1:], "")
}
