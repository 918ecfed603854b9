package mdbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvalTags(t *testing.T) {
	tags := []string{"html", "internal"}
	cases := map[string]bool{
		"html":                     true,
		"pdf":                      false,
		"not pdf":                  true,
		"not html":                 false,
		"html and internal":        true,
		"html and pdf":             false,
		"pdf or internal":          true,
		"pdf or epub":              false,
		"html and not pdf":         true,
		"pdf and html or internal": true,
		"html internal":            false,
		"and":                      false,
		"":                         false,
	}
	for expr, want := range cases {
		assert.Equal(t, want, evalTags(expr, tags), expr)
	}
}

func TestParseDirective(t *testing.T) {
	name, arg := parseDirective("{include} parts/a.md")
	assert.Equal(t, "include", name)
	assert.Equal(t, "parts/a.md", arg)

	name, arg = parseDirective("{Note}")
	assert.Equal(t, "note", name)
	assert.Empty(t, arg)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "basic-test", slug("Basic Test"))
	assert.Equal(t, "what-s-new-in-2-0", slug("What's new in 2.0?"))
	assert.Equal(t, "section", slug("!!!"))
	assert.Equal(t, "main title", normalizeName("  Main   Title "))
}

func TestLocalHTML(t *testing.T) {
	assert.Equal(t, "guide.html", localHTML("guide.md"))
	assert.Equal(t, "a/b.html#x", localHTML("a/b.md#x"))
	assert.Equal(t, "img.png", localHTML("img.png"))
	assert.False(t, isLocal("https://example.com"))
	assert.False(t, isLocal("#anchor"))
	assert.True(t, isLocal("guide.md"))
}
