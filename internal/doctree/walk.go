package doctree

// Predicate selects nodes during a traversal.
type Predicate func(*Node) bool

// Walk visits root and its descendants in document order and calls fn for
// every node matching pred. A nil pred matches everything. fn runs before the
// node's children are visited, so it may rewrite attributes but must not
// detach the node being visited.
func Walk(root *Node, pred Predicate, fn func(*Node)) {
	if root == nil {
		return
	}
	if pred == nil || pred(root) {
		fn(root)
	}
	for _, c := range root.Children {
		Walk(c, pred, fn)
	}
}

// Traverse returns the nodes matching pred in document order.
func Traverse(root *Node, pred Predicate) []*Node {
	var out []*Node
	Walk(root, pred, func(n *Node) { out = append(out, n) })
	return out
}

// HasAttr matches nodes carrying the named attribute.
func HasAttr(name string) Predicate {
	return func(n *Node) bool { return n.Has(name) }
}

// TagIs matches element nodes with the given tag.
func TagIs(tag string) Predicate {
	return func(n *Node) bool { return n.Tag == tag }
}

// NormalizeSources replaces every "source" attribute with its final path
// component so trees compare equal regardless of where they were built.
// It returns the number of rewritten nodes.
func NormalizeSources(root *Node) int {
	count := 0
	Walk(root, HasAttr("source"), func(n *Node) {
		n.Set("source", baseName(n.Get("source")))
		count++
	})
	return count
}

// baseName strips both separator styles so trees written on Windows hosts
// normalize the same way on Unix ones.
func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[i+1:]
		}
	}
	return p
}
