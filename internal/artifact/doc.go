// Package artifact reads the artifacts a build leaves under <srcdir>/_build.
//
// ReadOutput returns the text of a rendered page and can compare its
// div.documentwrapper region against a baseline. ReadDoctree decodes a
// serialized tree, replaces every source attribute with its base name and can
// compare the pseudo-XML rendering against a baseline. A missing artifact is
// always an error carrying the not_found category; no partial content is
// returned.
package artifact
