package types

import (
	"context"
	"errors"
	"time"
)

// TestStatus represents the possible states of a test execution
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
	TestStatusSkip TestStatus = "skip"
)

// ErrSkipped signals that a test chose to skip itself. Closure-backed tests
// return it (possibly wrapped) to be recorded as skipped rather than failed.
var ErrSkipped = errors.New("test skipped")

// Test is a single runnable test within a suite. Exactly one of Run or
// Command should be set; Run takes precedence when both are present.
type Test struct {
	Name string

	// Command is the argv to execute, resolved relative to Dir.
	Command []string
	Dir     string
	Env     []string

	// Run executes the test in-process. Used by in-memory suites and fakes.
	Run func(ctx context.Context) error

	// Skip marks the test as skipped without executing it.
	Skip bool

	// Timeout overrides the executor's default per-test timeout when non-zero.
	Timeout time.Duration
}

// TestResult captures the outcome of a single test run
type TestResult struct {
	Name     string
	Suite    string
	Path     string
	Platform Platform
	Status   TestStatus
	Error    error
	Duration time.Duration
	Output   string // captured output, retained for failing tests
	TimedOut bool
}

// Stats aggregates test outcomes across a run.
type Stats struct {
	Passed  int
	Failed  int
	Skipped int
}

// Total returns the number of observed test outcomes.
func (s Stats) Total() int {
	return s.Passed + s.Failed + s.Skipped
}

// Add merges another set of stats into this one.
func (s *Stats) Add(other Stats) {
	s.Passed += other.Passed
	s.Failed += other.Failed
	s.Skipped += other.Skipped
}

// Record counts a single outcome.
func (s *Stats) Record(status TestStatus) {
	switch status {
	case TestStatusPass:
		s.Passed++
	case TestStatusFail:
		s.Failed++
	case TestStatusSkip:
		s.Skipped++
	}
}
