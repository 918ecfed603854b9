// Package builder defines the contract between the harness and a
// documentation build driver.
//
// A driver receives a Request, builds the source tree into
// <srcdir>/_build/<builder>/ (rendered output) and <srcdir>/_build/doctrees/
// (serialized trees), writes progress to the status stream and one line per
// problem to the warning stream. The status stream of a completed build ends
// with the SuccessMarker.
package builder
