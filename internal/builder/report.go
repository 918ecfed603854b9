package builder

import (
	"fmt"
	"io"
	"sync"
)

// Reporter writes status and warning lines in the format the harness
// expects from every driver.
type Reporter struct {
	mu       sync.Mutex
	status   io.Writer
	warning  io.Writer
	warnings int
}

// NewReporter wraps the request's streams.
func NewReporter(req Request) *Reporter {
	req = req.WithDefaults()
	return &Reporter{status: req.Status, warning: req.Warning}
}

// Statusf writes one status line.
func (r *Reporter) Statusf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.status, format+"\n", args...)
}

// Warn writes "<location>: WARNING: <message>". line <= 0 omits the line number.
func (r *Reporter) Warn(path string, line int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings++
	switch {
	case path == "":
		_, _ = fmt.Fprintf(r.warning, "WARNING: %s\n", message)
	case line > 0:
		_, _ = fmt.Fprintf(r.warning, "%s:%d: WARNING: %s\n", path, line, message)
	default:
		_, _ = fmt.Fprintf(r.warning, "%s: WARNING: %s\n", path, message)
	}
}

// Warnings returns the number of warnings written so far.
func (r *Reporter) Warnings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

// Succeeded writes the final status line.
func (r *Reporter) Succeeded() {
	n := r.Warnings()
	switch n {
	case 0:
		r.Statusf("%s.", SuccessMarker)
	case 1:
		r.Statusf("%s, 1 warning.", SuccessMarker)
	default:
		r.Statusf("%s, %d warnings.", SuccessMarker, n)
	}
}
