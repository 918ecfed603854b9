package mdbuild

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docharness/internal/doctree"
)

const (
	staticDir  = "_static"
	stylesheet = "basic.css"
	script     = "docharness.js"
)

var staticFiles = map[string]string{
	stylesheet: "div.documentwrapper { float: left; width: 100%; }\n" +
		"div.bodywrapper { margin: 0 0 0 230px; }\n" +
		"div.sphinxsidebar { float: left; width: 230px; margin-left: -100%; }\n" +
		"div.admonition { margin: 10px 0; padding: 7px; border: 1px solid #ccc; }\n" +
		"div.footer { clear: both; font-size: smaller; }\n",
	script: "document.documentElement.dataset.docharness = \"1\";\n",
}

// renderHTML renders p as a complete HTML page.
func renderHTML(conf *Conf, p *page) ([]byte, error) {
	root := relRoot(p.docname)

	head := elem("head")
	head.AppendChild(elem("meta", "charset", "utf-8").Node)
	head.AppendChild(elem("meta", "name", "viewport", "content", "width=device-width, initial-scale=1").Node)
	head.AppendChild(elem("title").withText(p.title + " | " + conf.HTMLTitle).Node)
	head.AppendChild(elem("link", "rel", "stylesheet", "href", root+staticDir+"/"+stylesheet).Node)
	head.AppendChild(elem("script", "src", root+staticDir+"/"+script).Node)

	body := elem("div", "class", "body", "role", "main")
	w := &htmlWriter{}
	for _, c := range p.tree.Children {
		w.visit(body.Node, c, 0)
	}

	bodywrapper := elem("div", "class", "bodywrapper")
	bodywrapper.AppendChild(body.Node)
	wrapper := elem("div", "class", "documentwrapper")
	wrapper.AppendChild(bodywrapper.Node)

	sidebar := elem("div", "class", "sphinxsidebar", "role", "navigation", "aria-label", "main navigation")
	sidebarInner := elem("div", "class", "sphinxsidebarwrapper")
	sidebarInner.AppendChild(elem("h3").withText(conf.Project).Node)
	sidebar.AppendChild(sidebarInner.Node)

	document := elem("div", "class", "document")
	document.AppendChild(wrapper.Node)
	document.AppendChild(sidebar.Node)

	htmlBody := elem("body")
	htmlBody.AppendChild(document.Node)
	htmlBody.AppendChild(elem("div", "class", "footer").withText("Built with docharness.").Node)

	top := elem("html", "lang", conf.Language)
	top.AppendChild(head.Node)
	top.AppendChild(htmlBody.Node)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(top.Node)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type element struct{ *html.Node }

func elem(tag string, attrs ...string) element {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return element{n}
}

func (e element) withText(s string) element {
	e.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	return e
}

type htmlWriter struct{}

// visit appends the HTML rendering of n to parent. depth counts enclosing
// sections and picks the heading level.
func (w *htmlWriter) visit(parent *html.Node, n *doctree.Node, depth int) {
	if n.IsText() {
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: n.Text})
		return
	}

	var out element
	switch n.Tag {
	case "section":
		out = elem("section", "id", n.Get("ids"))
		depth++
	case "title":
		level := depth
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		out = elem("h" + strconv.Itoa(level))
	case "rubric":
		out = elem("p", "class", "rubric")
	case "paragraph":
		out = elem("p")
	case "literal_block":
		if lang := n.Get("language"); lang != "" {
			out = elem("pre", "class", "literal-block", "data-language", lang)
		} else {
			out = elem("pre", "class", "literal-block")
		}
	case "bullet_list":
		out = elem("ul")
	case "enumerated_list":
		out = elem("ol")
		if start := n.Get("start"); start != "" {
			out.Attr = append(out.Attr, html.Attribute{Key: "start", Val: start})
		}
	case "list_item":
		out = elem("li")
	case "block_quote":
		out = elem("blockquote")
	case "transition":
		parent.AppendChild(elem("hr").Node)
		return
	case "raw":
		if n.Get("format") == "html" {
			parent.AppendChild(&html.Node{Type: html.RawNode, Data: n.AsText()})
		}
		return
	case "emphasis":
		out = elem("em")
	case "strong":
		out = elem("strong")
	case "literal":
		out = elem("code", "class", "literal")
	case "reference":
		out = w.reference(n)
	case "image":
		parent.AppendChild(elem("img", "alt", n.Get("alt"), "src", n.Get("uri")).Node)
		return
	case "inline":
		out = elem("del")
	case "checkbox":
		box := elem("input", "type", "checkbox", "disabled", "")
		if n.Get("checked") == "true" {
			box.Attr = append(box.Attr, html.Attribute{Key: "checked", Val: ""})
		}
		parent.AppendChild(box.Node)
		return
	case "note", "warning", "tip", "important":
		out = elem("div", "class", "admonition "+n.Tag)
		out.AppendChild(elem("p", "class", "admonition-title").withText(admonitionTitle(n.Tag)).Node)
	case "table":
		out = elem("table", "class", "docutils")
	case "thead", "tbody":
		out = elem(n.Tag)
	case "row":
		out = elem("tr")
	case "entry":
		out = elem("td")
		if parent.Parent != nil && parent.Parent.Data == "thead" {
			out = elem("th")
		}
		// Cells hold a single paragraph; render its inline content directly.
		if len(n.Children) == 1 && n.Children[0].Tag == "paragraph" {
			parent.AppendChild(out.Node)
			for _, c := range n.Children[0].Children {
				w.visit(out.Node, c, depth)
			}
			return
		}
	default:
		out = elem("div", "class", n.Tag)
	}

	parent.AppendChild(out.Node)
	for _, c := range n.Children {
		w.visit(out.Node, c, depth)
	}
}

func (w *htmlWriter) reference(n *doctree.Node) element {
	uri := n.Get("refuri")
	class := "reference external"
	if isLocal(uri) {
		class = "reference internal"
		uri = localHTML(uri)
	}
	ref := elem("a", "class", class, "href", uri)
	if title := n.Get("reftitle"); title != "" {
		ref.Attr = append(ref.Attr, html.Attribute{Key: "title", Val: title})
	}
	return ref
}

func isLocal(uri string) bool {
	return uri != "" && !strings.Contains(uri, "://") &&
		!strings.HasPrefix(uri, "mailto:") && !strings.HasPrefix(uri, "#")
}

// localHTML rewrites a link to a Markdown source into a link to its page.
func localHTML(uri string) string {
	path, frag, _ := strings.Cut(uri, "#")
	if strings.HasSuffix(path, ".md") {
		path = strings.TrimSuffix(path, ".md") + ".html"
	}
	if frag != "" {
		return path + "#" + frag
	}
	return path
}

func admonitionTitle(tag string) string {
	return strings.ToUpper(tag[:1]) + tag[1:]
}

// relRoot is the relative prefix from a page back to the output root.
func relRoot(docname string) string {
	return strings.Repeat("../", strings.Count(docname, "/"))
}
