package types

import "context"

// Suite is a loaded collection of tests bound to an execution platform and
// the environment handle used for debug-pause signaling.
type Suite struct {
	Name        string
	Path        string
	Platform    Platform
	Environment Environment
	Tests       []*Test
}

// Filter returns a copy of the suite whose test list is reduced to tests
// matching pattern. A nil pattern returns the receiver unchanged. The
// receiver is never mutated.
func (s *Suite) Filter(pattern *Pattern) *Suite {
	if pattern == nil {
		return s
	}
	filtered := *s
	filtered.Tests = nil
	for _, t := range s.Tests {
		if pattern.Match(t.Name) {
			filtered.Tests = append(filtered.Tests, t)
		}
	}
	return &filtered
}

// LoadFailureSuite wraps a load error as a suite with a single failing test,
// so one broken input surfaces in the results without aborting its siblings.
func LoadFailureSuite(name, path string, err error) *Suite {
	return &Suite{
		Name: name,
		Path: path,
		Tests: []*Test{{
			Name: "loading " + name,
			Run: func(context.Context) error {
				return err
			},
		}},
	}
}

// SuiteDescriptor is a named, lazily-evaluated unit of work. Forcing it via
// Load yields either the fully-loaded suite or the load failure. Descriptors
// are immutable once constructed; loader-built descriptors memoize forcing.
type SuiteDescriptor struct {
	Name     string
	Path     string
	LoadFunc func(ctx context.Context) (*Suite, error)
}

// Load forces the descriptor.
func (d *SuiteDescriptor) Load(ctx context.Context) (*Suite, error) {
	return d.LoadFunc(ctx)
}
