package metrics

import "time"

// BuildOutcome enumerates the final state of one driver invocation.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarnings BuildOutcome = "warnings"
	OutcomeFailed   BuildOutcome = "failed"
)

// ArtifactKind distinguishes rendered pages from serialized trees.
type ArtifactKind string

const (
	ArtifactOutput  ArtifactKind = "output"
	ArtifactDoctree ArtifactKind = "doctree"
)

// ReadResult is the outcome of an artifact read.
type ReadResult string

const (
	ReadOK      ReadResult = "ok"
	ReadMissing ReadResult = "missing"
	ReadError   ReadResult = "error"
)

// BaselineResult is the outcome of a regression comparison.
type BaselineResult string

const (
	BaselineMatch    BaselineResult = "match"
	BaselineMismatch BaselineResult = "mismatch"
	BaselineRecorded BaselineResult = "recorded"
	BaselineMissing  BaselineResult = "missing"
)

// Recorder defines observability hooks for builds, artifact reads and
// baseline comparisons. Implementations may forward to Prometheus.
type Recorder interface {
	ObserveBuildDuration(builder string, d time.Duration)
	IncBuildOutcome(builder string, outcome BuildOutcome)
	IncArtifactRead(kind ArtifactKind, result ReadResult)
	IncBaselineCheck(extension string, result BaselineResult)
	AddBuildDirsRemoved(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, BuildOutcome)       {}
func (NoopRecorder) IncArtifactRead(ArtifactKind, ReadResult)   {}
func (NoopRecorder) IncBaselineCheck(string, BaselineResult)    {}
func (NoopRecorder) AddBuildDirsRemoved(int)                    {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
