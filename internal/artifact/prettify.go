package artifact

import (
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Prettify renders n with one tag or text run per line and one space of
// indentation per depth. Whitespace around text is dropped and
// whitespace-only text disappears, so the result only depends on the markup.
func Prettify(n *html.Node) string {
	var b strings.Builder
	prettify(&b, n, 0)
	return b.String()
}

func prettify(b *strings.Builder, n *html.Node, depth int) {
	indent := strings.Repeat(" ", depth)
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			prettify(b, c, depth)
		}
	case html.DoctypeNode:
		b.WriteString(indent + "<!DOCTYPE " + n.Data + ">\n")
	case html.CommentNode:
		b.WriteString(indent + "<!--" + n.Data + "-->\n")
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		for _, line := range strings.Split(text, "\n") {
			b.WriteString(indent)
			b.WriteString(textEscaper.Replace(line))
			b.WriteByte('\n')
		}
	case html.ElementNode:
		b.WriteString(indent)
		b.WriteByte('<')
		b.WriteString(n.Data)
		for _, a := range n.Attr {
			b.WriteByte(' ')
			if a.Namespace != "" {
				b.WriteString(a.Namespace + ":")
			}
			b.WriteString(a.Key)
			b.WriteString(`="`)
			b.WriteString(attrEscaper.Replace(a.Val))
			b.WriteByte('"')
		}
		if voidElements[n.Data] {
			b.WriteString("/>\n")
			return
		}
		b.WriteString(">\n")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			prettify(b, c, depth+1)
		}
		b.WriteString(indent + "</" + n.Data + ">\n")
	}
}
