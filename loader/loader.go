package loader

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/suiterun/suiterun/types"
)

// ErrPathNotFound marks inputs that name neither a file nor a directory.
// It is carried per-suite: forcing the synthesized descriptor yields this
// failure instead of aborting discovery of sibling paths.
var ErrPathNotFound = errors.New("path not found")

// ManifestSuffix is the filename suffix directory discovery looks for.
const ManifestSuffix = ".suite.yaml"

// Loader turns filesystem paths into streams of lazily-loaded suite
// descriptors.
type Loader interface {
	// LoadDir walks path and emits one descriptor per suite manifest found,
	// in lexical walk order.
	LoadDir(ctx context.Context, path string) <-chan *types.SuiteDescriptor

	// LoadFile emits a single descriptor for the manifest at path.
	LoadFile(ctx context.Context, path string) <-chan *types.SuiteDescriptor

	// Close cancels outstanding loads. It is safe to call multiple times.
	Close() error
}

// Config contains filesystem loader configuration
type Config struct {
	Log log.Logger

	// DefaultTimeout applies to tests whose manifest entry has no timeout.
	DefaultTimeout time.Duration
}

// FSLoader loads suites from *.suite.yaml manifests on disk.
type FSLoader struct {
	log            log.Logger
	defaultTimeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	env       types.Environment
}

var _ Loader = (*FSLoader)(nil)

// New creates a filesystem loader.
func New(cfg Config) *FSLoader {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &FSLoader{
		log:            cfg.Log.New("component", "loader"),
		defaultTimeout: cfg.DefaultTimeout,
		ctx:            ctx,
		cancel:         cancel,
		env:            processEnvironment{},
	}
}

func (l *FSLoader) LoadDir(ctx context.Context, dir string) <-chan *types.SuiteDescriptor {
	out := make(chan *types.SuiteDescriptor)
	go func() {
		defer close(out)

		var manifests []string
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ManifestSuffix) {
				manifests = append(manifests, path)
			}
			return nil
		})
		if err != nil {
			l.log.Warn("Suite discovery walk failed", "dir", dir, "error", err)
			emit(ctx, out, l.failureDescriptor(dir, err))
			return
		}

		l.log.Debug("Discovered suite manifests", "dir", dir, "count", len(manifests))
		for _, m := range manifests {
			if !emit(ctx, out, l.Descriptor(m)) {
				return
			}
		}
	}()
	return out
}

func (l *FSLoader) LoadFile(ctx context.Context, path string) <-chan *types.SuiteDescriptor {
	out := make(chan *types.SuiteDescriptor, 1)
	go func() {
		defer close(out)
		emit(ctx, out, l.Descriptor(path))
	}()
	return out
}

// Close cancels loads still in flight. Descriptors forced after Close fail.
func (l *FSLoader) Close() error {
	l.closeOnce.Do(func() {
		l.log.Debug("Closing loader")
		l.cancel()
	})
	return nil
}

// Descriptor builds the lazily-forced descriptor for a single manifest.
// Forcing is memoized: the manifest is parsed at most once per descriptor.
func (l *FSLoader) Descriptor(path string) *types.SuiteDescriptor {
	var (
		once  sync.Once
		suite *types.Suite
		err   error
	)
	return &types.SuiteDescriptor{
		Name: SuiteName(path),
		Path: path,
		LoadFunc: func(ctx context.Context) (*types.Suite, error) {
			once.Do(func() {
				suite, err = l.loadManifest(ctx, path)
			})
			return suite, err
		},
	}
}

func (l *FSLoader) failureDescriptor(path string, err error) *types.SuiteDescriptor {
	return &types.SuiteDescriptor{
		Name: SuiteName(path),
		Path: path,
		LoadFunc: func(context.Context) (*types.Suite, error) {
			return nil, err
		},
	}
}

// SuiteName derives a suite's default name from its manifest path.
func SuiteName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ManifestSuffix)
}

func emit(ctx context.Context, out chan<- *types.SuiteDescriptor, d *types.SuiteDescriptor) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
