package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyScenario   = "scenario"
	KeyBuilder    = "builder"
	KeySrcDir     = "srcdir"
	KeyPath       = "path"
	KeyArtifact   = "artifact"
	KeyExtension  = "extension"
	KeyDocument   = "document"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Scenario(id string) slog.Attr      { return slog.String(KeyScenario, id) }
func Builder(name string) slog.Attr     { return slog.String(KeyBuilder, name) }
func SrcDir(dir string) slog.Attr       { return slog.String(KeySrcDir, dir) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Artifact(name string) slog.Attr    { return slog.String(KeyArtifact, name) }
func Extension(ext string) slog.Attr    { return slog.String(KeyExtension, ext) }
func Document(docname string) slog.Attr { return slog.String(KeyDocument, docname) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
