package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/suiterun/suiterun"
	"github.com/suiterun/suiterun/engine"
	"github.com/suiterun/suiterun/exitcodes"
	"github.com/suiterun/suiterun/flags"
	"github.com/suiterun/suiterun/loader"
	"github.com/suiterun/suiterun/reporter"
	"github.com/suiterun/suiterun/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "suiterun"
	app.Usage = "Test suite runner"
	app.ArgsUsage = "[paths...]"
	app.Description = "suiterun discovers test suites under the given paths and runs them"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if suiterun.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	svc := service.New()
	svc.Start(context.Background())
	defer svc.Shutdown()

	if err := app.Run(os.Args); err != nil {
		os.Exit(exitcodes.RuntimeErr)
	}
}

func run(cliCtx *cli.Context) error {
	level := log.LevelInfo
	if cliCtx.Bool(flags.Verbose.Name) {
		level = log.LevelDebug
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, !cliCtx.Bool(flags.NoColor.Name)))
	log.SetDefault(logger)

	cfg, err := suiterun.NewConfig(cliCtx, logger)
	if err != nil {
		return suiterun.NewRuntimeError(fmt.Errorf("invalid configuration: %w", err))
	}

	l := loader.New(loader.Config{
		Log:            logger,
		DefaultTimeout: cfg.DefaultTimeout,
	})
	eng := engine.New(engine.Config{
		Concurrency: cfg.Concurrency,
		Executor:    engine.NewCommandExecutor(logger, cfg.DefaultTimeout),
		Log:         logger,
	})
	rep := reporter.New(eng, logger, reporter.Options{
		Color:        cfg.Color,
		ShowPath:     cfg.ShowPath,
		ShowPlatform: cfg.ShowPlatform,
		Out:          os.Stdout,
	})

	orch, err := suiterun.New(cfg, l, eng, rep)
	if err != nil {
		return suiterun.NewRuntimeError(err)
	}

	// First interrupt starts a graceful close; the second exits on the spot.
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		logger.Info("Interrupted, shutting down (interrupt again to exit immediately)")
		go func() {
			if err := orch.Close(); err != nil {
				logger.Error("Shutdown failed", "error", err)
			}
		}()
		<-sigs
		logger.Warn("Forced exit")
		os.Exit(exitcodes.RuntimeErr)
	}()

	ok, runErr := orch.Run(cliCtx.Context)
	if closeErr := orch.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	rep.Summary()

	if runErr != nil {
		return suiterun.NewRuntimeError(runErr)
	}
	if !ok {
		return suiterun.NewTestFailureError("one or more tests failed")
	}
	return nil
}
