package mdbuild

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/doctree"
	"git.home.luguber.info/inful/docharness/internal/frontmatter"
)

const maxIncludeDepth = 8

var admonitions = map[string]bool{
	"note":      true,
	"warning":   true,
	"tip":       true,
	"important": true,
}

// page is one parsed source document.
type page struct {
	docname string
	path    string
	title   string
	tree    *doctree.Node
	// inputs are the bytes every rendering of the page depends on:
	// its own front matter and body followed by every included file.
	frontmatter string
	inputs      bytes.Buffer
}

// converter turns Markdown sources into doctrees.
type converter struct {
	md     goldmark.Markdown
	srcdir string
	tags   []string
	report *builder.Reporter
}

func newConverter(md goldmark.Markdown, srcdir string, tags []string, report *builder.Reporter) *converter {
	return &converter{md: md, srcdir: srcdir, tags: tags, report: report}
}

// document parses one source file. Problems inside the file are reported as
// warnings; only an unreadable file is an error.
func (c *converter) document(docname, path string) (*page, error) {
	// #nosec G304 -- path comes from the source tree walk
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p := &page{docname: docname, path: path}
	fm, err := frontmatter.Parse(data)
	if err != nil {
		c.report.Warn(path, 1, "invalid front matter: "+err.Error())
	}
	if canonical, cerr := frontmatter.Canonical(fm.Fields); cerr == nil {
		p.frontmatter = string(canonical)
	}
	p.inputs.Write(fm.Body)

	p.tree = doctree.NewElement("document", "source", path)
	p.tree.Append(c.blocks(p, path, fm.Body, fm.BodyLine, 0)...)

	p.title = fm.String("title")
	if titles := doctree.Traverse(p.tree, doctree.TagIs("title")); p.title == "" && len(titles) > 0 {
		p.title = titles[0].AsText()
	}
	if p.title == "" {
		p.title = "<no title>"
	}
	return p, nil
}

// blocks converts a Markdown fragment. Headings open nested sections that
// stay local to the fragment.
func (c *converter) blocks(p *page, path string, src []byte, firstLine, depth int) []*doctree.Node {
	root := c.md.Parser().Parse(text.NewReader(src))
	b := &blockBuilder{c: c, page: p, path: path, src: src, firstLine: firstLine, depth: depth}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		b.top(n)
	}
	return b.out
}

type section struct {
	level int
	node  *doctree.Node
}

type blockBuilder struct {
	c         *converter
	page      *page
	path      string
	src       []byte
	firstLine int
	depth     int

	out   []*doctree.Node
	stack []section
}

func (b *blockBuilder) emit(nodes ...*doctree.Node) {
	if len(b.stack) == 0 {
		b.out = append(b.out, nodes...)
		return
	}
	b.stack[len(b.stack)-1].node.Append(nodes...)
}

func (b *blockBuilder) top(n gmast.Node) {
	h, ok := n.(*gmast.Heading)
	if !ok {
		b.emit(b.block(n)...)
		return
	}
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= h.Level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	title := doctree.NewElement("title").Append(b.inlines(h)...)
	name := title.AsText()
	sec := doctree.NewElement("section", "ids", slug(name), "names", normalizeName(name))
	sec.Append(title)
	b.emit(sec)
	b.stack = append(b.stack, section{level: h.Level, node: sec})
}

func (b *blockBuilder) children(n gmast.Node) []*doctree.Node {
	var out []*doctree.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, b.block(c)...)
	}
	return out
}

func (b *blockBuilder) block(n gmast.Node) []*doctree.Node {
	switch n := n.(type) {
	case *gmast.Paragraph, *gmast.TextBlock:
		return one(doctree.NewElement("paragraph").Append(b.inlines(n)...))
	case *gmast.Heading:
		return one(doctree.NewElement("rubric").Append(b.inlines(n)...))
	case *gmast.FencedCodeBlock:
		var info string
		line := 0
		if n.Info != nil {
			info = strings.TrimSpace(string(n.Info.Segment.Value(b.src)))
			line = b.line(n.Info.Segment.Start)
		}
		if strings.HasPrefix(info, "{") {
			return b.directive(info, b.lines(n), line)
		}
		lit := doctree.NewElement("literal_block", "xml:space", "preserve")
		if lang := n.Language(b.src); len(lang) > 0 {
			lit.Set("language", string(lang))
		}
		return one(lit.Append(doctree.NewText(b.lines(n))))
	case *gmast.CodeBlock:
		lit := doctree.NewElement("literal_block", "xml:space", "preserve")
		return one(lit.Append(doctree.NewText(b.lines(n))))
	case *gmast.List:
		list := doctree.NewElement("bullet_list")
		if n.IsOrdered() {
			list = doctree.NewElement("enumerated_list", "enumtype", "arabic")
			if n.Start > 1 {
				list.Set("start", strconv.Itoa(n.Start))
			}
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			list.Append(doctree.NewElement("list_item").Append(b.children(item)...))
		}
		return one(list)
	case *gmast.Blockquote:
		return one(doctree.NewElement("block_quote").Append(b.children(n)...))
	case *gmast.ThematicBreak:
		return one(doctree.NewElement("transition"))
	case *gmast.HTMLBlock:
		raw := doctree.NewElement("raw", "format", "html", "xml:space", "preserve")
		return one(raw.Append(doctree.NewText(b.lines(n))))
	case *east.Table:
		return one(b.table(n))
	default:
		return b.children(n)
	}
}

func (b *blockBuilder) table(t *east.Table) *doctree.Node {
	table := doctree.NewElement("table")
	body := doctree.NewElement("tbody")
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		row := doctree.NewElement("row")
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row.Append(doctree.NewElement("entry").Append(
				doctree.NewElement("paragraph").Append(b.inlines(cell)...)))
		}
		if _, header := r.(*east.TableHeader); header {
			table.Append(doctree.NewElement("thead").Append(row))
			continue
		}
		body.Append(row)
	}
	if len(body.Children) > 0 {
		table.Append(body)
	}
	return table
}

func (b *blockBuilder) directive(info, body string, line int) []*doctree.Node {
	name, arg := parseDirective(info)
	bodyLine := line + 1
	switch {
	case name == "include":
		return b.include(arg, line)
	case name == "only":
		if arg == "" {
			b.c.report.Warn(b.path, line, "only directive requires a tag expression")
			return nil
		}
		if !evalTags(arg, b.c.tags) {
			return nil
		}
		return b.c.blocks(b.page, b.path, []byte(body), bodyLine, b.depth)
	case admonitions[name]:
		adm := doctree.NewElement(name)
		if arg != "" {
			body = arg + "\n\n" + body
			bodyLine = line
		}
		return one(adm.Append(b.c.blocks(b.page, b.path, []byte(body), bodyLine, b.depth)...))
	default:
		b.c.report.Warn(b.path, line, fmt.Sprintf("Unknown directive type %q.", name))
		return nil
	}
}

func (b *blockBuilder) include(arg string, line int) []*doctree.Node {
	if arg == "" {
		b.c.report.Warn(b.path, line, "include directive requires a path")
		return nil
	}
	if b.depth >= maxIncludeDepth {
		b.c.report.Warn(b.path, line, "include nesting too deep: "+arg)
		return nil
	}
	target, ok := b.c.resolveInclude(b.path, arg)
	if !ok {
		b.c.report.Warn(b.path, line, "include path outside the source directory: "+arg)
		return nil
	}
	// #nosec G304 -- resolveInclude confines targets to the source directory
	data, err := os.ReadFile(target)
	if err != nil {
		b.c.report.Warn(b.path, line, "include file not found or unreadable: "+arg)
		return nil
	}
	fm, err := frontmatter.Parse(data)
	if err != nil {
		b.c.report.Warn(target, 1, "invalid front matter: "+err.Error())
	}
	b.page.inputs.WriteString("\x00" + target + "\x00")
	b.page.inputs.Write(fm.Body)

	nodes := b.c.blocks(b.page, target, fm.Body, fm.BodyLine, b.depth+1)
	for _, n := range nodes {
		if !n.IsText() && !n.Has("source") {
			n.Set("source", target)
		}
	}
	return nodes
}

// resolveInclude maps an include argument to a path inside the source
// directory. Relative arguments start at the including file, a leading
// slash starts at the source directory. Targets escaping it are rejected.
func (c *converter) resolveInclude(from, arg string) (string, bool) {
	target := filepath.FromSlash(arg)
	if strings.HasPrefix(arg, "/") || filepath.IsAbs(target) {
		target = filepath.Join(c.srcdir, target)
	} else {
		target = filepath.Join(filepath.Dir(from), target)
	}
	root, err := filepath.Abs(c.srcdir)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

func (b *blockBuilder) lines(n gmast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (b *blockBuilder) line(offset int) int {
	if offset > len(b.src) {
		offset = len(b.src)
	}
	return b.firstLine + bytes.Count(b.src[:offset], []byte("\n"))
}

func (b *blockBuilder) inlines(parent gmast.Node) []*doctree.Node {
	var out []*doctree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = appendInline(out, b.inline(n)...)
	}
	return out
}

func (b *blockBuilder) inline(n gmast.Node) []*doctree.Node {
	switch n := n.(type) {
	case *gmast.Text:
		s := string(n.Segment.Value(b.src))
		if n.SoftLineBreak() || n.HardLineBreak() {
			s += "\n"
		}
		return one(doctree.NewText(s))
	case *gmast.String:
		return one(doctree.NewText(string(n.Value)))
	case *gmast.CodeSpan:
		return one(doctree.NewElement("literal").Append(doctree.NewText(b.plain(n))))
	case *gmast.Emphasis:
		tag := "emphasis"
		if n.Level >= 2 {
			tag = "strong"
		}
		return one(doctree.NewElement(tag).Append(b.inlines(n)...))
	case *gmast.Link:
		ref := doctree.NewElement("reference", "refuri", string(n.Destination))
		if len(n.Title) > 0 {
			ref.Set("reftitle", string(n.Title))
		}
		return one(ref.Append(b.inlines(n)...))
	case *gmast.AutoLink:
		url := string(n.URL(b.src))
		return one(doctree.NewElement("reference", "refuri", url).Append(doctree.NewText(url)))
	case *gmast.Image:
		return one(doctree.NewElement("image", "uri", string(n.Destination), "alt", b.plain(n)))
	case *gmast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(b.src))
		}
		return one(doctree.NewElement("raw", "format", "html").Append(doctree.NewText(buf.String())))
	case *east.Strikethrough:
		return one(doctree.NewElement("inline", "classes", "strikethrough").Append(b.inlines(n)...))
	case *east.TaskCheckBox:
		return one(doctree.NewElement("checkbox", "checked", strconv.FormatBool(n.IsChecked)))
	default:
		return b.inlines(n)
	}
}

// plain returns the text of the inline children of n.
func (b *blockBuilder) plain(n gmast.Node) string {
	var sb strings.Builder
	for _, c := range b.inlines(n) {
		sb.WriteString(c.AsText())
	}
	return sb.String()
}

// appendInline appends nodes to out, merging adjacent text nodes.
func appendInline(out []*doctree.Node, nodes ...*doctree.Node) []*doctree.Node {
	for _, n := range nodes {
		if n.IsText() && len(out) > 0 && out[len(out)-1].IsText() {
			out[len(out)-1].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}

func one(n *doctree.Node) []*doctree.Node { return []*doctree.Node{n} }

var directiveInfo = regexp.MustCompile(`^\{([A-Za-z][\w-]*)\}\s*(.*)$`)

// parseDirective splits "{name} argument" into its parts.
func parseDirective(info string) (name, arg string) {
	m := directiveInfo.FindStringSubmatch(info)
	if m == nil {
		return strings.Trim(info, "{}"), ""
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2])
}

// evalTags evaluates expressions such as "html", "not draft" or
// "html and not draft or pdf". "and" binds tighter than "or".
func evalTags(expr string, tags []string) bool {
	active := make(map[string]bool, len(tags))
	for _, t := range tags {
		active[t] = true
	}
	fields := strings.Fields(expr)
	var alts [][]string
	current := []string{}
	for _, f := range fields {
		if f == "or" {
			alts = append(alts, current)
			current = []string{}
			continue
		}
		current = append(current, f)
	}
	alts = append(alts, current)

	for _, alt := range alts {
		if evalConjunction(alt, active) {
			return true
		}
	}
	return false
}

func evalConjunction(tokens []string, active map[string]bool) bool {
	if len(tokens) == 0 {
		return false
	}
	negate := false
	operand := false
	for _, tok := range tokens {
		switch tok {
		case "and":
			if !operand {
				return false
			}
			operand = false
		case "not":
			negate = !negate
		default:
			if operand {
				return false
			}
			if active[tok] == negate {
				return false
			}
			negate = false
			operand = true
		}
	}
	return operand
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a section title into an identifier.
func slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "section"
	}
	return s
}

func normalizeName(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
