package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/suiterun/suiterun/types"
)

// suiteManifest is the on-disk schema of a *.suite.yaml file.
type suiteManifest struct {
	Name     string         `yaml:"name,omitempty"`
	Platform string         `yaml:"platform,omitempty"`
	Tests    []testManifest `yaml:"tests"`
}

type testManifest struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command,omitempty"`
	Env     []string `yaml:"env,omitempty"`
	Skip    bool     `yaml:"skip,omitempty"`
	Timeout string   `yaml:"timeout,omitempty"`
}

// loadManifest forces a descriptor: it reads and validates the manifest and
// binds each test to the suite's directory and environment.
func (l *FSLoader) loadManifest(ctx context.Context, path string) (*types.Suite, error) {
	select {
	case <-l.ctx.Done():
		return nil, fmt.Errorf("loader closed: %w", l.ctx.Err())
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	l.log.Debug("Loading suite manifest", "path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite manifest %s: %w", path, err)
	}

	var manifest suiteManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse suite manifest %s: %w", path, err)
	}

	name := manifest.Name
	if name == "" {
		name = SuiteName(path)
	}

	var platform types.Platform
	if manifest.Platform != "" {
		platform, err = types.ParsePlatform(manifest.Platform)
		if err != nil {
			return nil, fmt.Errorf("suite manifest %s: %w", path, err)
		}
	}

	suite := &types.Suite{
		Name:        name,
		Path:        path,
		Platform:    platform,
		Environment: l.env,
	}

	dir := filepath.Dir(path)
	for i, tm := range manifest.Tests {
		if tm.Name == "" {
			return nil, fmt.Errorf("suite manifest %s: test %d has no name", path, i)
		}
		if len(tm.Command) == 0 && !tm.Skip {
			return nil, fmt.Errorf("suite manifest %s: test %q has no command", path, tm.Name)
		}
		timeout := l.defaultTimeout
		if tm.Timeout != "" {
			timeout, err = time.ParseDuration(tm.Timeout)
			if err != nil {
				return nil, fmt.Errorf("suite manifest %s: test %q has invalid timeout: %w", path, tm.Name, err)
			}
		}
		suite.Tests = append(suite.Tests, &types.Test{
			Name:    tm.Name,
			Command: tm.Command,
			Dir:     dir,
			Env:     tm.Env,
			Skip:    tm.Skip,
			Timeout: timeout,
		})
	}

	l.log.Debug("Loaded suite", "suite", suite.Name, "platform", suite.Platform, "tests", len(suite.Tests))
	return suite, nil
}

// processEnvironment is the environment handle for locally-executed suites.
// It has no resume channel of its own, so DisplayPause blocks until the
// pause is canceled; the console input arm of the pause race always wins.
type processEnvironment struct{}

func (processEnvironment) DisplayPause(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
