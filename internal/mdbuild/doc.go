// Package mdbuild is a documentation build driver for Markdown source trees.
//
// It reads conf.yaml from the source directory, parses every Markdown
// document with goldmark into a doctree, stores the trees below
// _build/doctrees and renders them with the requested builder:
//
//   - html: one page per document, content inside div.documentwrapper
//   - pseudoxml: the indented tree dump of each document
//
// Fenced blocks whose info string starts with a braced name are directives:
// {include} pulls in another file, {only} keeps its body when the tag
// expression holds, and {note}, {warning}, {tip} and {important} produce
// admonitions. Documents whose content fingerprint did not change since the
// last build are skipped unless a fresh environment is requested.
package mdbuild
