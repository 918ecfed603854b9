package doctree

import (
	"sort"
	"strings"
)

const indentUnit = "    "

// Pformat renders the tree as indented pseudo-XML. Attributes are sorted by
// name and text is written line by line at its depth, so the output is stable
// for a given tree.
func Pformat(root *Node) string {
	var b strings.Builder
	pformat(&b, root, 0)
	return b.String()
}

func pformat(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat(indentUnit, depth)
	if n.IsText() {
		for _, line := range strings.Split(n.Text, "\n") {
			b.WriteString(indent)
			b.WriteString(escapeText(line))
			b.WriteByte('\n')
		}
		return
	}

	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.Tag)
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(n.Attrs[k]))
		b.WriteByte('"')
	}
	b.WriteString(">\n")

	for _, c := range n.Children {
		pformat(b, c, depth+1)
	}
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
)

func escapeText(s string) string { return textEscaper.Replace(s) }
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
