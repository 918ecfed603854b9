package doctree

import "strings"

// TextTag is the tag carried by text nodes.
const TextTag = "#text"

// Node is one element or text node of a document tree.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// NewElement creates an element node. attrs is a flat list of key/value pairs.
func NewElement(tag string, attrs ...string) *Node {
	n := &Node{Tag: tag}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Set(attrs[i], attrs[i+1])
	}
	return n
}

// NewText creates a text node.
func NewText(text string) *Node {
	return &Node{Tag: TextTag, Text: text}
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n.Tag == TextTag
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Has reports whether the attribute is present.
func (n *Node) Has(name string) bool {
	_, ok := n.Attrs[name]
	return ok
}

// Get returns an attribute value, or "" when absent.
func (n *Node) Get(name string) string {
	return n.Attrs[name]
}

// Set stores an attribute value.
func (n *Node) Set(name, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = value
}

// AsText concatenates the text of n and all its descendants.
func (n *Node) AsText() string {
	var b strings.Builder
	Walk(n, func(c *Node) bool { return c.IsText() }, func(c *Node) {
		b.WriteString(c.Text)
	})
	return b.String()
}
