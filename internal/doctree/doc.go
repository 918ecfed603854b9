// Package doctree models the hierarchical document produced by a build.
//
// A tree is made of element nodes (a tag plus string attributes) and text
// nodes (tag "#text"). Trees are persisted in a binary form next to the
// rendered output and rendered to pseudo-XML for regression baselines.
package doctree
