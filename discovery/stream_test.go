package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiterun/suiterun/loader"
	"github.com/suiterun/suiterun/types"
)

// fakeLoader serves canned descriptor streams keyed by path. Paths it knows
// about are treated as directories by pointing tests at t.TempDir().
type fakeLoader struct {
	dirs   map[string][]*types.SuiteDescriptor
	files  map[string]*types.SuiteDescriptor
	closed int
}

func (f *fakeLoader) LoadDir(ctx context.Context, path string) <-chan *types.SuiteDescriptor {
	out := make(chan *types.SuiteDescriptor)
	go func() {
		defer close(out)
		for _, d := range f.dirs[path] {
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (f *fakeLoader) LoadFile(ctx context.Context, path string) <-chan *types.SuiteDescriptor {
	out := make(chan *types.SuiteDescriptor, 1)
	if d, ok := f.files[path]; ok {
		out <- d
	}
	close(out)
	return out
}

func (f *fakeLoader) Close() error {
	f.closed++
	return nil
}

func staticDescriptor(name string) *types.SuiteDescriptor {
	return &types.SuiteDescriptor{
		Name: name,
		LoadFunc: func(context.Context) (*types.Suite, error) {
			return &types.Suite{Name: name, Tests: []*types.Test{{Name: name + " works"}}}, nil
		},
	}
}

func drain(t *testing.T, ch <-chan *types.SuiteDescriptor) []*types.SuiteDescriptor {
	t.Helper()
	var out []*types.SuiteDescriptor
	deadline := time.After(5 * time.Second)
	for {
		select {
		case d, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, d)
		case <-deadline:
			t.Fatal("stream did not close")
		}
	}
}

func TestStreamMergesAllPaths(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	fl := &fakeLoader{dirs: map[string][]*types.SuiteDescriptor{
		dirA: {staticDescriptor("a1"), staticDescriptor("a2")},
		dirB: {staticDescriptor("b1")},
	}}

	descs := drain(t, Stream(context.Background(), fl, []string{dirA, dirB}, nil))

	names := make(map[string]bool)
	var aOrder []string
	for _, d := range descs {
		names[d.Name] = true
		if d.Name == "a1" || d.Name == "a2" {
			aOrder = append(aOrder, d.Name)
		}
	}
	// Merge is lossless: the union equals what each path yields alone.
	assert.Equal(t, map[string]bool{"a1": true, "a2": true, "b1": true}, names)
	// Per-path internal order is preserved even when paths interleave.
	assert.Equal(t, []string{"a1", "a2"}, aOrder)
}

func TestStreamNonexistentPathYieldsPathNotFound(t *testing.T) {
	dir := t.TempDir()
	fl := &fakeLoader{dirs: map[string][]*types.SuiteDescriptor{
		dir: {staticDescriptor("ok")},
	}}

	descs := drain(t, Stream(context.Background(), fl, []string{dir, "/definitely/not/there"}, nil))
	require.Len(t, descs, 2)

	var sawOK, sawMissing bool
	for _, d := range descs {
		suite, err := d.Load(context.Background())
		if err != nil {
			sawMissing = true
			assert.ErrorIs(t, err, loader.ErrPathNotFound)
			assert.Contains(t, err.Error(), "/definitely/not/there")
		} else {
			sawOK = true
			assert.Equal(t, "ok", suite.Name)
		}
	}
	// The bad path surfaces per-suite and never blocks its siblings.
	assert.True(t, sawOK)
	assert.True(t, sawMissing)
}

func TestStreamAppliesPatternOnForce(t *testing.T) {
	dir := t.TempDir()
	desc := &types.SuiteDescriptor{
		Name: "mixed",
		LoadFunc: func(context.Context) (*types.Suite, error) {
			return &types.Suite{Name: "mixed", Tests: []*types.Test{
				{Name: "foo bar"},
				{Name: "baz"},
			}}, nil
		},
	}
	fl := &fakeLoader{dirs: map[string][]*types.SuiteDescriptor{dir: {desc}}}

	descs := drain(t, Stream(context.Background(), fl, []string{dir}, types.NewPattern("foo")))
	require.Len(t, descs, 1)

	suite, err := descs[0].Load(context.Background())
	require.NoError(t, err)
	require.Len(t, suite.Tests, 1)
	assert.Equal(t, "foo bar", suite.Tests[0].Name)
}

func TestStreamEmitsSuitesLeftEmptyByFilter(t *testing.T) {
	dir := t.TempDir()
	fl := &fakeLoader{dirs: map[string][]*types.SuiteDescriptor{
		dir: {staticDescriptor("only")},
	}}

	descs := drain(t, Stream(context.Background(), fl, []string{dir}, types.NewPattern("no-match")))
	require.Len(t, descs, 1, "emptiness is the orchestrator's concern, not suppressed here")

	suite, err := descs[0].Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, suite.Tests)
}

func TestStreamLoadsFileInputs(t *testing.T) {
	dir := t.TempDir()
	// A real on-disk file so Stream classifies the path as a file.
	path := filepath.Join(dir, "one.suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tests: []\n"), 0o644))
	fl := &fakeLoader{files: map[string]*types.SuiteDescriptor{path: staticDescriptor("one")}}

	descs := drain(t, Stream(context.Background(), fl, []string{path}, nil))
	require.Len(t, descs, 1)
	assert.Equal(t, "one", descs[0].Name)
}

func TestStreamCancellationClosesStream(t *testing.T) {
	dir := t.TempDir()
	fl := &fakeLoader{dirs: map[string][]*types.SuiteDescriptor{
		dir: {staticDescriptor("a"), staticDescriptor("b"), staticDescriptor("c")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	stream := Stream(ctx, fl, []string{dir}, nil)

	<-stream
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-stream:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}
