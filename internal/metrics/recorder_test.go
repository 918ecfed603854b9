package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	builds    map[BuildOutcome]int
	reads     map[ReadResult]int
	baselines map[BaselineResult]int
	removed   int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		builds:    map[BuildOutcome]int{},
		reads:     map[ReadResult]int{},
		baselines: map[BaselineResult]int{},
	}
}

func (t *testRecorder) ObserveBuildDuration(string, time.Duration)   {}
func (t *testRecorder) IncBuildOutcome(_ string, o BuildOutcome)     { t.builds[o]++ }
func (t *testRecorder) IncArtifactRead(_ ArtifactKind, r ReadResult) { t.reads[r]++ }
func (t *testRecorder) IncBaselineCheck(_ string, r BaselineResult)  { t.baselines[r]++ }
func (t *testRecorder) AddBuildDirsRemoved(n int)                    { t.removed += n }

func TestRecorderInterfaceSatisfied(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)
	var _ Recorder = newTestRecorder()
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopRecorder); !ok {
		t.Fatal("expected NoopRecorder for nil input")
	}
	tr := newTestRecorder()
	OrNoop(tr).IncBuildOutcome("html", OutcomeWarnings)
	if tr.builds[OutcomeWarnings] != 1 {
		t.Fatalf("expected recorder to be returned unchanged")
	}
}
