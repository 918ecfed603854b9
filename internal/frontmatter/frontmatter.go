// Package frontmatter separates YAML front matter from Markdown source files.
package frontmatter

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml front matter start delimiter found but closing delimiter is missing")

// Document is a source file split into front matter and body.
type Document struct {
	// Present reports whether the file opened with a --- block.
	Present bool
	Raw     []byte
	Fields  map[string]any
	Body    []byte
	// BodyLine is the 1-based line of the source file where Body starts.
	BodyLine int
}

// Parse splits content at its `---` delimited front matter and decodes the
// YAML fields. Without front matter the whole input is the body.
func Parse(content []byte) (Document, error) {
	doc := Document{Fields: map[string]any{}, Body: content, BodyLine: 1}

	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return doc, nil
	}

	start := len(open)
	var end, bodyStart int
	if bytes.HasPrefix(content[start:], open) {
		end, bodyStart = start, start+len(open)
	} else {
		closing := []byte(nl + "---" + nl)
		idx := bytes.Index(content[start:], closing)
		if idx < 0 {
			return doc, ErrMissingClosingDelimiter
		}
		end = start + idx + len(nl)
		bodyStart = start + idx + len(closing)
	}

	doc.Present = true
	doc.Raw = content[start:end]
	doc.Body = content[bodyStart:]
	doc.BodyLine = bytes.Count(content[:bodyStart], []byte("\n")) + 1

	fields, err := ParseYAML(doc.Raw)
	if err != nil {
		return doc, err
	}
	doc.Fields = fields
	return doc, nil
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// String returns the named field when it is a non-empty string.
func (d Document) String(key string) string {
	if s, ok := d.Fields[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
