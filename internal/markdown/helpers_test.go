package markdown_test

import (
	"testing"

	"smartbrief/internal/markdown"

	"github.com/stretchr/testify/assert"
)

func TestStripFences(t *testing.T) {
	for name, tc := range map[string]struct {
		in   string
		want string
	}{
		"plain":           {"<p>hi</p>", "<p>hi</p>"},
		"html info":       {"```html\n<p>hi</p>\n```", "<p>hi</p>"},
		"bare fence":      {"  ```\n<p>hi</p>\n```  \n", "<p>hi</p>"},
		"inline leftover": {"<p>hi</p>```", "<p>hi</p>"},
		"text around":     {"Here you go:\n```html\n<p>hi</p>\n```", "Here you go:\n<p>hi</p>"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, markdown.StripFences(tc.in))
		})
	}
}

func TestStripEmphasis(t *testing.T) {
	assert.Equal(t, "<li>Weather Snapshot</li>", markdown.StripEmphasis("<li>**Weather Snapshot**</li>"))
	assert.Equal(t, "Top News\n<p>x</p>", markdown.StripEmphasis("## Top News\n<p>x</p>"))
	assert.Equal(t, "a * b", markdown.StripEmphasis("a * b"))
	assert.Equal(t, "<p># 1 pick</p>", markdown.StripEmphasis("<p># 1 pick</p>"))
	assert.Equal(t, "<div>\nTop News</div>", markdown.StripEmphasis("<div>\n### Top News</div>"))
}

func TestStripEmphasisKeepsMarkup(t *testing.T) {
	in := `<li><a href="https://a.example.com/story?__twl=1">One</a> <a href="https://a.example.com/story?__twl=2">Two</a></li>` +
		`<!-- **note** --><p title="**x**">__Today__</p>`

	want := `<li><a href="https://a.example.com/story?__twl=1">One</a> <a href="https://a.example.com/story?__twl=2">Two</a></li>` +
		`<!-- **note** --><p title="**x**">Today</p>`

	assert.Equal(t, want, markdown.StripEmphasis(in))
}

func TestHasArtifacts(t *testing.T) {
	assert.True(t, markdown.HasArtifacts("```"))
	assert.True(t, markdown.HasArtifacts("**bold**"))
	assert.True(t, markdown.HasArtifacts("# Title"))
	assert.False(t, markdown.HasArtifacts("<p>5 * 3 = 15 and #1 pick</p>"))
	assert.False(t, markdown.HasArtifacts(`<a href="https://x.example.com/?__a=1">a</a> <a href="https://x.example.com/?__a=2">b</a>`))
	assert.True(t, markdown.HasArtifacts("<p>ok</p>\n## Extra"))
}
