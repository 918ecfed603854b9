package artifact

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docharness/internal/baseline"
	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
	"git.home.luguber.info/inful/docharness/internal/metrics"
	"git.home.luguber.info/inful/docharness/internal/textenc"
)

const (
	// DefaultOutputFile is read when OutputOptions names no file.
	DefaultOutputFile = "index.html"
	// HTMLExtension keys page baselines.
	HTMLExtension = ".html"
	// WrapperClass marks the page region compared against baselines.
	WrapperClass = "documentwrapper"
)

// OutputOptions select and post-process a rendered page.
type OutputOptions struct {
	Builder  string
	Filename string
	Encoding string
	// ExtractBody returns the inner HTML of <body> instead of the file text.
	ExtractBody bool
	// RemoveScripts drops <script> elements from the extracted body and
	// from the compared region.
	RemoveScripts bool
	// Regress compares the prettified documentwrapper region with Baseline.
	Regress  bool
	Baseline baseline.Checker
}

func (o OutputOptions) withDefaults() OutputOptions {
	if o.Builder == "" {
		o.Builder = builder.DefaultBuilder
	}
	if o.Filename == "" {
		o.Filename = DefaultOutputFile
	}
	if o.Encoding == "" {
		o.Encoding = textenc.Default
	}
	return o
}

// OutputPath returns <srcdir>/_build/<builder>/<filename>.
func OutputPath(src Source, builderName, filename string) string {
	return Path(src, builderName, filename)
}

// Output reads a rendered page. Unless ExtractBody is set, the returned text
// is the decoded file content whether or not a comparison ran.
func (r *Reader) Output(src Source, opts OutputOptions) (string, error) {
	opts = opts.withDefaults()
	path := OutputPath(src, opts.Builder, opts.Filename)

	data, err := r.read(metrics.ArtifactOutput, path)
	if err != nil {
		return "", err
	}
	content, err := textenc.Decode(data, opts.Encoding)
	if err != nil {
		r.recorder.IncArtifactRead(metrics.ArtifactOutput, metrics.ReadError)
		return "", err
	}

	if !opts.Regress && !opts.ExtractBody {
		r.recorder.IncArtifactRead(metrics.ArtifactOutput, metrics.ReadOK)
		return content, nil
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		r.recorder.IncArtifactRead(metrics.ArtifactOutput, metrics.ReadError)
		return "", errors.WrapError(err, errors.CategoryValidation, "parse html").
			WithContext("path", path).Build()
	}
	if opts.RemoveScripts {
		removed := RemoveScripts(doc)
		r.logger.Debug("Removed scripts", logfields.Path(path), logfields.Count(removed))
	}

	if opts.Regress {
		wrapper, err := documentWrapper(doc)
		if err != nil {
			r.recorder.IncArtifactRead(metrics.ArtifactOutput, metrics.ReadError)
			return "", errors.WrapError(err, errors.CategoryValidation, "select comparison region").
				WithContext("path", path).Build()
		}
		if err := r.compare(metrics.ArtifactOutput, opts.Baseline, Prettify(wrapper), HTMLExtension, opts.Encoding); err != nil {
			return "", err
		}
	}

	if opts.ExtractBody {
		body, err := InnerHTML(findFirst(doc, atom.Body))
		if err != nil {
			r.recorder.IncArtifactRead(metrics.ArtifactOutput, metrics.ReadError)
			return "", errors.WrapError(err, errors.CategoryInternal, "render body").
				WithContext("path", path).Build()
		}
		content = body
	}
	r.recorder.IncArtifactRead(metrics.ArtifactOutput, metrics.ReadOK)
	return content, nil
}

// documentWrapper returns the single div carrying the wrapper class.
func documentWrapper(doc *html.Node) (*html.Node, error) {
	var found []*html.Node
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Div && hasClass(n, WrapperClass) {
			found = append(found, n)
		}
	})
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, errors.ValidationError("page has no div." + WrapperClass).Build()
	default:
		return nil, errors.ValidationError("page has more than one div."+WrapperClass).
			WithContext("count", len(found)).Build()
	}
}

// RemoveScripts deletes every <script> element below n and returns how many
// were removed.
func RemoveScripts(n *html.Node) int {
	var scripts []*html.Node
	walk(n, func(c *html.Node) {
		if c.Type == html.ElementNode && c.DataAtom == atom.Script {
			scripts = append(scripts, c)
		}
	})
	for _, s := range scripts {
		if s.Parent != nil {
			s.Parent.RemoveChild(s)
		}
	}
	return len(scripts)
}

// InnerHTML renders the children of n. A nil node renders as "".
func InnerHTML(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}
