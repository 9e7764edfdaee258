// Package discovery builds the merged stream of lazily-loaded suite
// descriptors that feeds the execution engine.
package discovery

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/suiterun/suiterun/loader"
	"github.com/suiterun/suiterun/types"
)

// Stream merges the suites discovered under each input path into a single
// ordered-by-arrival stream. Per-path order is preserved; across paths,
// descriptors interleave as they become ready. A nonexistent path produces a
// single descriptor that forces to a PathNotFound failure, so one bad input
// never aborts discovery of the others. When pattern is non-nil every
// descriptor is wrapped so that forcing filters the suite's test list;
// suites left empty by the filter are still emitted.
func Stream(ctx context.Context, l loader.Loader, paths []string, pattern *types.Pattern) <-chan *types.SuiteDescriptor {
	out := make(chan *types.SuiteDescriptor)

	var wg sync.WaitGroup
	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			for d := range pathStream(ctx, l, path) {
				select {
				case out <- filtered(d, pattern):
				case <-ctx.Done():
					return
				}
			}
		}(path)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func pathStream(ctx context.Context, l loader.Loader, path string) <-chan *types.SuiteDescriptor {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return notFound(path)
	case info.IsDir():
		return l.LoadDir(ctx, path)
	default:
		return l.LoadFile(ctx, path)
	}
}

// notFound synthesizes the single-descriptor stream for a missing path.
func notFound(path string) <-chan *types.SuiteDescriptor {
	out := make(chan *types.SuiteDescriptor, 1)
	out <- &types.SuiteDescriptor{
		Name: loader.SuiteName(path),
		Path: path,
		LoadFunc: func(context.Context) (*types.Suite, error) {
			return nil, fmt.Errorf("%w: %s", loader.ErrPathNotFound, path)
		},
	}
	close(out)
	return out
}

func filtered(d *types.SuiteDescriptor, pattern *types.Pattern) *types.SuiteDescriptor {
	if pattern == nil {
		return d
	}
	return &types.SuiteDescriptor{
		Name: d.Name,
		Path: d.Path,
		LoadFunc: func(ctx context.Context) (*types.Suite, error) {
			suite, err := d.Load(ctx)
			if err != nil {
				return nil, err
			}
			return suite.Filter(pattern), nil
		},
	}
}
