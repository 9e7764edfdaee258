package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/suiterun/suiterun/types"
)

// DefaultTestTimeout bounds tests that specify no timeout of their own.
const DefaultTestTimeout = 10 * time.Minute

// Executor handles individual test execution.
type Executor interface {
	Execute(ctx context.Context, t *types.Test) *types.TestResult
}

// CommandExecutor runs a test's in-process closure when present, otherwise
// its command as a subprocess with combined output capture.
type CommandExecutor struct {
	log            log.Logger
	defaultTimeout time.Duration
}

var _ Executor = (*CommandExecutor)(nil)

func NewCommandExecutor(logger log.Logger, defaultTimeout time.Duration) *CommandExecutor {
	if logger == nil {
		logger = log.New()
	}
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTestTimeout
	}
	return &CommandExecutor{
		log:            logger.New("component", "executor"),
		defaultTimeout: defaultTimeout,
	}
}

func (x *CommandExecutor) Execute(ctx context.Context, t *types.Test) *types.TestResult {
	res := &types.TestResult{Name: t.Name, Status: types.TestStatusPass}
	if t.Skip {
		res.Status = types.TestStatusSkip
		return res
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = x.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var (
		output []byte
		err    error
	)
	switch {
	case t.Run != nil:
		err = t.Run(ctx)
	case len(t.Command) > 0:
		cmd := exec.CommandContext(ctx, t.Command[0], t.Command[1:]...)
		cmd.Dir = t.Dir
		if len(t.Env) > 0 {
			cmd.Env = append(os.Environ(), t.Env...)
		}
		output, err = cmd.CombinedOutput()
	default:
		err = errors.New("test has neither a command nor a run function")
	}
	res.Duration = time.Since(start)

	switch {
	case err == nil:
	case errors.Is(err, types.ErrSkipped):
		res.Status = types.TestStatusSkip
	default:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.TimedOut = true
			err = fmt.Errorf("test timed out after %s: %w", timeout, err)
		}
		res.Status = types.TestStatusFail
		res.Error = err
		res.Output = string(output)
		x.log.Debug("Test failed", "test", t.Name, "duration", res.Duration, "error", err)
	}
	return res
}
