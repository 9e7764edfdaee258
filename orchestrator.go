// Package suiterun drives test-suite discovery, feeds discovered suites into
// the execution engine, coordinates the optional debug-pause workflow, and
// guarantees ordered shutdown under both normal completion and interruption.
package suiterun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/suiterun/suiterun/discovery"
	"github.com/suiterun/suiterun/engine"
	"github.com/suiterun/suiterun/loader"
	"github.com/suiterun/suiterun/metrics"
	"github.com/suiterun/suiterun/types"
)

// Reporter is the slice of the progress reporter the orchestrator needs:
// a pausable shared output sink. Pause/Resume must nest safely.
type Reporter interface {
	Pause()
	Resume()
}

type orchState int

const (
	stateOpen orchState = iota
	stateClosing
	stateClosed
)

// Orchestrator owns one engine handle and one loader handle for one run.
// Run is invoked at most meaningfully once; Close may be invoked any number
// of times, concurrently or mid-run, and its effects execute exactly once.
type Orchestrator struct {
	config   *Config
	loader   loader.Loader
	engine   engine.Engine
	reporter Reporter
	log      log.Logger
	tracer   trace.Tracer
	out      io.Writer

	mu            sync.Mutex
	state         orchState
	closeErr      error
	closeDone     chan struct{}
	forwardCancel context.CancelFunc
}

// New creates an orchestrator over the given collaborators.
func New(cfg *Config, l loader.Loader, eng engine.Engine, rep Reporter) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if l == nil || eng == nil || rep == nil {
		return nil, errors.New("loader, engine and reporter are required")
	}
	return &Orchestrator{
		config:    cfg,
		loader:    l,
		engine:    eng,
		reporter:  rep,
		log:       cfg.logger().New("component", "orchestrator"),
		tracer:    otel.Tracer("suiterun"),
		out:       os.Stdout,
		closeDone: make(chan struct{}),
	}, nil
}

// Run builds the suite stream and pumps it into the engine while driving the
// engine to completion. It returns (true, nil) when every test passed,
// (false, nil) when shutdown preempted the run, and (false, err) otherwise.
//
// The two halves are joined eagerly on failure: the first error returns
// without waiting for the other half, but neither half is forcibly aborted.
// Close remains the sole cancellation entry point, and is required after a
// failed Run to reclaim the engine.
func (o *Orchestrator) Run(ctx context.Context) (bool, error) {
	o.mu.Lock()
	if o.state != stateOpen {
		o.mu.Unlock()
		return false, ErrAlreadyClosed
	}
	// Canceled by Close, or below once both halves complete. An early error
	// return deliberately leaves it alive so straggling suite loads finish
	// in the background.
	streamCtx, cancel := context.WithCancel(ctx)
	o.forwardCancel = cancel
	o.mu.Unlock()

	ctx, span := o.tracer.Start(ctx, "run")
	defer span.End()

	start := time.Now()
	o.log.Info("Starting run", "paths", o.config.Paths, "pattern", o.config.Pattern, "pauseAfterLoad", o.config.PauseAfterLoad)

	stream := discovery.Stream(streamCtx, o.loader, o.config.Paths, o.config.Pattern)

	type half struct {
		fromEngine bool
		status     engine.RunStatus
		err        error
	}
	results := make(chan half, 2)

	go func() {
		var err error
		if o.config.PauseAfterLoad {
			err = o.newDebugPump().run(streamCtx, stream)
		} else {
			err = o.pump(streamCtx, stream)
		}
		o.engine.CloseIntake()
		results <- half{err: err}
	}()
	go func() {
		status, err := o.engine.Run(ctx)
		results <- half{fromEngine: true, status: status, err: err}
	}()

	status := engine.RunStatusPassed
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			o.log.Error("Run failed", "error", r.err)
			metrics.RecordErrorDetails("run failed", r.err)
			return false, r.err
		}
		if r.fromEngine {
			status = r.status
		}
	}
	cancel()

	stats := o.engine.Stats()
	metrics.RecordRun(o.runID(), string(status), stats, time.Since(start))
	o.log.Info("Run complete", "status", status,
		"passed", stats.Passed, "failed", stats.Failed, "skipped", stats.Skipped,
		"duration", time.Since(start))

	if status == engine.RunStatusClosed {
		// Shutdown preempted the run; no outcome, no error.
		return false, nil
	}
	if stats.Total() == 0 && o.config.Pattern != nil && !o.closingOrClosed() {
		return false, &NoTestsMatchedError{Pattern: o.config.Pattern}
	}
	return status == engine.RunStatusPassed, nil
}

// pump forwards every descriptor's forced suite into the engine intake.
// Load failures are forwarded as failing suites so a broken input surfaces
// in the results instead of aborting its siblings.
func (o *Orchestrator) pump(ctx context.Context, stream <-chan *types.SuiteDescriptor) error {
	for desc := range stream {
		suite, err := desc.Load(ctx)
		if err != nil {
			o.log.Warn("Suite failed to load", "suite", desc.Name, "path", desc.Path, "error", err)
			suite = types.LoadFailureSuite(desc.Name, desc.Path, err)
		}
		if err := o.submit(suite); err != nil {
			return err
		}
	}
	return nil
}

// submit hands a suite to the engine, treating an engine closed by teardown
// as end-of-forwarding rather than a run failure.
func (o *Orchestrator) submit(suite *types.Suite) error {
	err := o.engine.Submit(suite)
	if err == nil || errors.Is(err, engine.ErrClosed) {
		return nil
	}
	return fmt.Errorf("failed to submit suite %q: %w", suite.Name, err)
}

// Close performs the ordered teardown of the engine and loader. The first
// caller runs teardown; concurrent and later callers block until it
// completes and observe the same result.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.state != stateOpen {
		o.mu.Unlock()
		<-o.closeDone
		return o.closeErr
	}
	o.state = stateClosing
	cancel := o.forwardCancel
	o.mu.Unlock()

	o.log.Info("Closing orchestrator")

	// A one-shot notice so an interactive user knows why shutdown is taking
	// a while. Suppressed entirely if teardown wins the race.
	var notice *time.Timer
	if !o.engine.Idle() {
		notice = time.AfterFunc(o.config.gracePeriod(), func() {
			o.reporter.Pause()
			fmt.Fprintln(o.out, "Waiting for running tests to finish... (press Ctrl-C again to exit immediately)")
			o.reporter.Resume()
		})
	}

	var errs []error
	if cancel != nil {
		cancel()
	}
	if err := o.engine.Close(); err != nil {
		o.log.Error("Engine close failed", "error", err)
		metrics.RecordErrorDetails("engine close failed", err)
		errs = append(errs, err)
	}
	if notice != nil {
		notice.Stop()
	}
	if err := o.loader.Close(); err != nil {
		o.log.Error("Loader close failed", "error", err)
		metrics.RecordErrorDetails("loader close failed", err)
		errs = append(errs, err)
	}

	o.mu.Lock()
	o.state = stateClosed
	o.closeErr = errors.Join(errs...)
	o.mu.Unlock()
	close(o.closeDone)

	o.log.Info("Orchestrator closed")
	return o.closeErr
}

func (o *Orchestrator) closingOrClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state != stateOpen
}

func (o *Orchestrator) runID() string {
	if e, ok := o.engine.(interface{ RunID() string }); ok {
		return e.RunID()
	}
	return "unknown"
}
