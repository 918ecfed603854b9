package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.False(t, doc.Present)
	require.Empty(t, doc.Raw)
	require.Empty(t, doc.Fields)
	require.Equal(t, input, doc.Body)
	require.Equal(t, 1, doc.BodyLine)
}

func TestParse_YAMLFrontmatter_SplitsAndDecodes(t *testing.T) {
	input := []byte("---\ntitle: Guide\n---\n# Title\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Equal(t, []byte("title: Guide\n"), doc.Raw)
	require.Equal(t, []byte("# Title\n"), doc.Body)
	require.Equal(t, 4, doc.BodyLine)
	require.Equal(t, "Guide", doc.String("title"))
}

func TestParse_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	doc, err := Parse([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
	require.False(t, doc.Present)
}

func TestParse_CRLF(t *testing.T) {
	doc, err := Parse([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Equal(t, []byte("key: value\r\n"), doc.Raw)
	require.Equal(t, []byte("# Title\r\n"), doc.Body)
	require.Equal(t, "value", doc.String("key"))
}

func TestParse_EmptyBlock(t *testing.T) {
	doc, err := Parse([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Empty(t, doc.Raw)
	require.Equal(t, []byte("# Title\n"), doc.Body)
	require.Equal(t, 3, doc.BodyLine)
}

func TestParse_InvalidYAML_KeepsBody(t *testing.T) {
	doc, err := Parse([]byte("---\n: not yaml\n---\nbody\n"))
	require.Error(t, err)
	require.Equal(t, []byte("body\n"), doc.Body)
}

func TestString_NonStringField(t *testing.T) {
	doc, err := Parse([]byte("---\nweight: 3\n---\n"))
	require.NoError(t, err)
	require.Empty(t, doc.String("weight"))
	require.Empty(t, doc.String("missing"))
}

func TestParseYAML_ValidYAML_ReturnsMap(t *testing.T) {
	fields, err := ParseYAML([]byte("uid: abc\ntags:\n  - one\n"))
	require.NoError(t, err)
	require.Equal(t, "abc", fields["uid"])
	require.Equal(t, []any{"one"}, fields["tags"])
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
}
