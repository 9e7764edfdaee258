// Package engine executes loaded test suites concurrently and tracks
// pass/fail/skip state for the run.
package engine

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/suiterun/suiterun/types"
)

// RunStatus is the terminal state of an engine run.
type RunStatus string

const (
	RunStatusPassed RunStatus = "passed"
	RunStatusFailed RunStatus = "failed"
	// RunStatusClosed means the run was preempted by Close before it could
	// observe a definitive outcome.
	RunStatusClosed RunStatus = "closed"
)

var (
	// ErrIntakeClosed is returned by Submit after CloseIntake.
	ErrIntakeClosed = errors.New("engine intake is closed")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("engine is closed")
)

// Engine is the capability interface the orchestrator drives. Submit and
// CloseIntake form the suite intake sink and must be called from a single
// producer goroutine; everything else is safe for concurrent use.
type Engine interface {
	Submit(suite *types.Suite) error
	CloseIntake()
	Run(ctx context.Context) (RunStatus, error)
	Idle() bool
	OnIdle() <-chan struct{}
	Stats() types.Stats
	Subscribe(fn func(*types.TestResult))
	Close() error
}

// Config contains engine configuration
type Config struct {
	// Concurrency bounds the number of suites executing at once.
	// Zero means one suite per CPU.
	Concurrency int
	Executor    Executor
	Log         log.Logger
}

// Eng is the concrete concurrent engine.
type Eng struct {
	log         log.Logger
	executor    Executor
	concurrency int
	runID       string
	tracer      trace.Tracer

	mu           sync.Mutex
	intake       chan *types.Suite
	intakeClosed bool
	pending      int // suites submitted but not yet finished, queued included
	idleWaiters  []chan struct{}
	subscribers  []func(*types.TestResult)
	stats        types.Stats
	running      bool
	closed       bool
	runCancel    context.CancelFunc

	done      chan struct{} // closed by Close; unblocks a blocked Submit
	runDone   chan struct{} // closed when Run returns
	closeOnce sync.Once
}

var _ Engine = (*Eng)(nil)

// New creates an engine. The executor is required; tests inject fakes.
func New(cfg Config) *Eng {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.Executor == nil {
		cfg.Executor = NewCommandExecutor(cfg.Log, 0)
	}
	runID := uuid.New().String()
	return &Eng{
		log:         cfg.Log.New("component", "engine", "run_id", runID),
		executor:    cfg.Executor,
		concurrency: cfg.Concurrency,
		runID:       runID,
		tracer:      otel.Tracer("suite engine"),
		intake:      make(chan *types.Suite, cfg.Concurrency*2),
		done:        make(chan struct{}),
		runDone:     make(chan struct{}),
	}
}

// RunID identifies this engine's single run, for metrics and logs.
func (e *Eng) RunID() string {
	return e.runID
}

// Submit queues a suite for execution. It blocks when the intake buffer is
// full and the engine has not yet caught up.
func (e *Eng) Submit(s *types.Suite) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.intakeClosed {
		e.mu.Unlock()
		return ErrIntakeClosed
	}
	e.pending++
	e.mu.Unlock()

	select {
	case e.intake <- s:
		return nil
	case <-e.done:
		e.finishSuite()
		return ErrClosed
	}
}

// CloseIntake signals that no more suites will arrive.
func (e *Eng) CloseIntake() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.intakeClosed {
		return
	}
	e.intakeClosed = true
	close(e.intake)
}

// Run consumes the intake until it is closed and drained, executing suites
// concurrently up to the configured bound. It returns RunStatusClosed when
// preempted by Close, otherwise passed/failed according to observed results.
func (e *Eng) Run(ctx context.Context) (RunStatus, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return RunStatusClosed, nil
	}
	if e.running {
		e.mu.Unlock()
		return "", errors.New("engine is already running")
	}
	e.running = true
	ctx, cancel := context.WithCancel(ctx)
	e.runCancel = cancel
	e.mu.Unlock()
	defer cancel()
	defer close(e.runDone)

	e.log.Debug("Engine run starting", "concurrency", e.concurrency)
	sem := semaphore.NewWeighted(int64(e.concurrency))
	var wg sync.WaitGroup

loop:
	for {
		select {
		case suite, ok := <-e.intake:
			if !ok {
				break loop
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				// Canceled while waiting for a slot; the dequeued suite
				// will not run.
				e.finishSuite()
				break loop
			}
			wg.Add(1)
			go func(s *types.Suite) {
				defer wg.Done()
				defer sem.Release(1)
				e.runSuite(ctx, s)
				e.finishSuite()
			}(suite)
		case <-ctx.Done():
			break loop
		}
	}

	wg.Wait()
	e.discardQueued()

	if ctx.Err() != nil {
		e.log.Info("Engine run preempted", "stats", e.Stats())
		return RunStatusClosed, nil
	}
	stats := e.Stats()
	e.log.Info("Engine run complete", "passed", stats.Passed, "failed", stats.Failed, "skipped", stats.Skipped)
	if stats.Failed > 0 {
		return RunStatusFailed, nil
	}
	return RunStatusPassed, nil
}

// Idle reports whether no suite is executing and the intake is empty.
func (e *Eng) Idle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending == 0
}

// OnIdle returns a one-shot channel that is closed the next time the engine
// becomes idle. If the engine is already idle the channel is closed on
// return.
func (e *Eng) OnIdle() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan struct{})
	if e.pending == 0 {
		close(ch)
		return ch
	}
	e.idleWaiters = append(e.idleWaiters, ch)
	return ch
}

// Stats returns the outcome counts observed so far.
func (e *Eng) Stats() types.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Subscribe registers a callback invoked for every test result. Callbacks
// run outside the engine's lock but from executing goroutines, so they must
// be fast and safe for concurrent use.
func (e *Eng) Subscribe(fn func(*types.TestResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// Close cancels execution and waits for in-flight suites to stop. All
// callers block until teardown completes; teardown runs once.
func (e *Eng) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		cancel := e.runCancel
		running := e.running
		e.mu.Unlock()

		close(e.done)
		if cancel != nil {
			cancel()
		}
		if running {
			<-e.runDone
		}
		e.discardQueued()
		e.log.Debug("Engine closed")
	})
	return nil
}

func (e *Eng) runSuite(ctx context.Context, s *types.Suite) {
	if len(s.Tests) == 0 {
		e.log.Debug("Suite has no runnable tests", "suite", s.Name)
		return
	}

	ctx, span := e.tracer.Start(ctx, "suite "+s.Name)
	defer span.End()

	start := time.Now()
	e.log.Info("Running suite", "suite", s.Name, "platform", s.Platform, "tests", len(s.Tests))
	for _, t := range s.Tests {
		if ctx.Err() != nil {
			e.log.Debug("Suite preempted", "suite", s.Name)
			return
		}
		res := e.executor.Execute(ctx, t)
		res.Suite = s.Name
		res.Path = s.Path
		res.Platform = s.Platform
		e.record(res)
	}
	e.log.Info("Suite finished", "suite", s.Name, "duration", time.Since(start))
}

func (e *Eng) record(res *types.TestResult) {
	e.mu.Lock()
	e.stats.Record(res.Status)
	subscribers := make([]func(*types.TestResult), len(e.subscribers))
	copy(subscribers, e.subscribers)
	e.mu.Unlock()

	for _, fn := range subscribers {
		fn(res)
	}
}

func (e *Eng) finishSuite() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending--
	e.notifyIfIdleLocked()
}

// discardQueued drops suites that were queued but never dequeued, so idle
// tracking settles after a preempted run.
func (e *Eng) discardQueued() {
	for {
		select {
		case _, ok := <-e.intake:
			if !ok {
				return
			}
			e.finishSuite()
		default:
			return
		}
	}
}

func (e *Eng) notifyIfIdleLocked() {
	if e.pending != 0 {
		return
	}
	for _, ch := range e.idleWaiters {
		close(ch)
	}
	e.idleWaiters = nil
}
