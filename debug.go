package suiterun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/muesli/cancelreader"

	"github.com/suiterun/suiterun/engine"
	"github.com/suiterun/suiterun/types"
)

// debugPump feeds suites into the engine one at a time, pausing before each
// so the user can attach a debugger. The pause ends when the suite's
// environment reports the user resumed it or when a line arrives on the
// console, whichever happens first; the losing waiter is canceled and
// awaited before the suite runs.
type debugPump struct {
	config   *Config
	engine   engine.Engine
	reporter Reporter
	log      log.Logger
	out      io.Writer

	// Injectable so tests can stand in for the terminal.
	newStdinReader func() (cancelreader.CancelReader, error)
}

func (o *Orchestrator) newDebugPump() *debugPump {
	return &debugPump{
		config:   o.config,
		engine:   o.engine,
		reporter: o.reporter,
		log:      o.log.New("mode", "debug"),
		out:      o.out,
		newStdinReader: func() (cancelreader.CancelReader, error) {
			return cancelreader.NewReader(os.Stdin)
		},
	}
}

func (p *debugPump) run(ctx context.Context, stream <-chan *types.SuiteDescriptor) error {
	p.warnUnsupported()

	for desc := range stream {
		// A placeholder keeps the suite visible while it loads and pauses.
		if err := p.submit(&types.Suite{Name: desc.Name, Path: desc.Path}); err != nil {
			return err
		}

		suite, err := desc.Load(ctx)
		if err != nil {
			p.log.Warn("Suite failed to load", "suite", desc.Name, "path", desc.Path, "error", err)
			if err := p.submit(types.LoadFailureSuite(desc.Name, desc.Path, err)); err != nil {
				return err
			}
			if err := p.waitIdle(ctx); err != nil {
				return nil
			}
			continue
		}

		if len(suite.Tests) > 0 && suite.Platform != "" && suite.Platform.SupportsDebug() {
			if err := p.pause(ctx, suite); err != nil {
				return nil
			}
		}
		if err := p.submit(suite); err != nil {
			return err
		}
		if err := p.waitIdle(ctx); err != nil {
			return nil
		}
	}
	return nil
}

func (p *debugPump) submit(suite *types.Suite) error {
	err := p.engine.Submit(suite)
	if err == nil || errors.Is(err, engine.ErrClosed) {
		return nil
	}
	return fmt.Errorf("failed to submit suite %q: %w", suite.Name, err)
}

// waitIdle blocks until the engine has finished everything submitted so far,
// keeping suites strictly sequential in debug mode.
func (p *debugPump) waitIdle(ctx context.Context) error {
	select {
	case <-p.engine.OnIdle():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pause blocks until the user resumes the suite, racing the environment's
// own resume signal against a line of console input.
func (p *debugPump) pause(ctx context.Context, suite *types.Suite) error {
	p.reporter.Pause()
	defer p.reporter.Resume()
	fmt.Fprintf(p.out, "Loaded %s on %s. Attach a debugger now; press Enter to run it.\n", suite.Name, suite.Platform)

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	var envCh chan error
	if suite.Environment != nil {
		envCh = make(chan error, 1)
		env := suite.Environment
		go func() {
			envCh <- env.DisplayPause(raceCtx)
		}()
	}

	var consoleCh chan error
	var reader cancelreader.CancelReader
	if r, err := p.newStdinReader(); err != nil {
		p.log.Warn("Console input unavailable", "error", err)
	} else {
		reader = r
		defer reader.Close()
		consoleCh = make(chan error, 1)
		go func() {
			consoleCh <- readLine(reader)
		}()
	}

	if envCh == nil && consoleCh == nil {
		p.log.Warn("No way to resume a paused suite, running immediately", "suite", suite.Name)
		return nil
	}

	for {
		select {
		case err := <-envCh:
			if errors.Is(err, types.ErrPauseUnsupported) {
				envCh = nil
				if consoleCh == nil {
					return nil
				}
				continue
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				p.log.Warn("Environment pause failed", "suite", suite.Name, "error", err)
			}
			if reader != nil {
				reader.Cancel()
				<-consoleCh
			}
			return nil
		case err := <-consoleCh:
			if err != nil && !errors.Is(err, cancelreader.ErrCanceled) {
				p.log.Warn("Console read failed", "error", err)
			}
			raceCancel()
			if envCh != nil {
				<-envCh
			}
			return nil
		case <-ctx.Done():
			raceCancel()
			if reader != nil {
				reader.Cancel()
				<-consoleCh
			}
			if envCh != nil {
				<-envCh
			}
			return ctx.Err()
		}
	}
}

// warnUnsupported reports once, up front, the configured platforms that
// cannot honor a debug pause. The platform flag repeats, so duplicates are
// collapsed before printing.
func (p *debugPump) warnUnsupported() {
	seen := make(map[types.Platform]struct{})
	var unsupported []string
	for _, platform := range p.config.Platforms {
		if platform.SupportsDebug() {
			continue
		}
		if _, ok := seen[platform]; ok {
			continue
		}
		seen[platform] = struct{}{}
		unsupported = append(unsupported, string(platform))
	}
	if len(unsupported) == 0 {
		return
	}
	p.reporter.Pause()
	fmt.Fprintf(p.out, "Debug pausing is not supported on: %s. Suites for these run without pausing.\n",
		strings.Join(unsupported, ", "))
	p.reporter.Resume()
	p.log.Warn("Debug pausing unsupported for some platforms", "platforms", unsupported)
}

func readLine(r io.Reader) error {
	var buf [1]byte
	for {
		n, err := r.Read(buf[:])
		if n > 0 && buf[0] == '\n' {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
