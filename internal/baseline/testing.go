package baseline

// TB is the subset of testing.TB the testing helpers need.
type TB interface {
	Helper()
	Name() string
	Fatalf(format string, args ...any)
}

// Check compares content against the baseline named after the running test
// and fails the test on mismatch.
func (s *Store) Check(t TB, content, extension string) {
	t.Helper()
	if err := s.Compare(t.Name(), extension, content, ""); err != nil {
		t.Fatalf("%v\n%s", err, DiffOf(err))
	}
}
