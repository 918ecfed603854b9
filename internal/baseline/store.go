// Package baseline stores expected artifact renderings and compares fresh
// output against them.
//
// A Store runs in exactly one Mode. ModeVerify fails on any difference and on
// a missing baseline; ModeRecord overwrites the baseline with the produced
// content and never fails. The mode is always chosen by the caller; tests
// usually derive it from an -update-golden flag.
package baseline

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
	"git.home.luguber.info/inful/docharness/internal/metrics"
	"git.home.luguber.info/inful/docharness/internal/textenc"
)

// Mode selects between verifying and recording baselines.
type Mode int

const (
	ModeVerify Mode = iota
	ModeRecord
)

func (m Mode) String() string {
	if m == ModeRecord {
		return "record"
	}
	return "verify"
}

// ModeFor maps an update flag to a Mode.
func ModeFor(update bool) Mode {
	if update {
		return ModeRecord
	}
	return ModeVerify
}

// Checker compares content against one stored baseline per extension.
type Checker interface {
	Check(content, extension, encoding string) error
}

// Store is a directory of baseline files keyed by name and extension.
type Store struct {
	dir      string
	mode     Mode
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) { s.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, mode Mode, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		mode:     mode,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the baseline directory.
func (s *Store) Dir() string { return s.dir }

// Mode returns the store's mode.
func (s *Store) Mode() Mode { return s.mode }

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Path returns the file holding the baseline for name and extension.
// Subtest separators and other unsafe characters become underscores.
func (s *Store) Path(name, extension string) string {
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return filepath.Join(s.dir, unsafeNameChars.ReplaceAllString(name, "_")+extension)
}

// Compare checks content against the baseline for name and extension.
// encoding names the text encoding the baseline file is stored in.
func (s *Store) Compare(name, extension, content, encoding string) error {
	path := s.Path(name, extension)
	data, err := textenc.Encode(content, encoding)
	if err != nil {
		return err
	}

	if s.mode == ModeRecord {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create baseline directory").
				WithContext("path", path).Build()
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write baseline").
				WithContext("path", path).Build()
		}
		s.recorder.IncBaselineCheck(extension, metrics.BaselineRecorded)
		s.logger.Info("Recorded baseline", logfields.Path(path), logfields.Extension(extension))
		return nil
	}

	// #nosec G304 -- baseline paths are derived from test names under the store directory
	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.recorder.IncBaselineCheck(extension, metrics.BaselineMissing)
			return errors.NewError(errors.CategoryNotFound, "baseline not found (record it with -update-golden)").
				Fatal().
				WithContext("baseline", path).
				Build()
		}
		return errors.WrapError(err, errors.CategoryFileSystem, "read baseline").
			WithContext("path", path).Build()
	}

	if bytes.Equal(expected, data) {
		s.recorder.IncBaselineCheck(extension, metrics.BaselineMatch)
		return nil
	}

	s.recorder.IncBaselineCheck(extension, metrics.BaselineMismatch)
	expectedText, decodeErr := textenc.Decode(expected, encoding)
	if decodeErr != nil {
		expectedText = string(expected)
	}
	return errors.BaselineMismatch(path).
		WithContext("diff", Diff(path, expectedText, content)).
		Build()
}

// For binds the store to one baseline name, typically a test name.
func (s *Store) For(name string) Checker {
	return boundChecker{store: s, name: name}
}

type boundChecker struct {
	store *Store
	name  string
}

func (b boundChecker) Check(content, extension, encoding string) error {
	return b.store.Compare(b.name, extension, content, encoding)
}

// Diff renders a unified diff between a baseline and obtained content.
func Diff(baselinePath, expected, obtained string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(obtained),
		FromFile: baselinePath,
		ToFile:   "obtained",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("diff unavailable: %v", err)
	}
	return diff
}

// DiffOf extracts the diff recorded on a mismatch error, if any.
func DiffOf(err error) string {
	classified, ok := errors.AsClassified(err)
	if !ok {
		return ""
	}
	diff, _ := classified.Context().GetString("diff")
	return diff
}
